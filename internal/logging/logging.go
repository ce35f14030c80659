// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config selects level and outputs.
type Config struct {
	Level string `yaml:"level" json:"level" validate:"oneof=trace debug info warn error fatal"`
	// File enables a rotated log file in addition to stderr when set.
	File       string `yaml:"file" json:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups" validate:"gte=0"`
	NoColors   bool   `yaml:"no_colors" json:"no_colors"`
	// Caller adds file:line and function to every entry.
	Caller bool `yaml:"caller" json:"caller"`
}

// DefaultConfig logs at info level to stderr only.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  100,
		MaxAgeDays: 7,
		MaxBackups: 3,
	}
}

// New creates a logger from config. The returned closer flushes and closes the
// log file, if any.
func New(config Config) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&formatter.Formatter{
		NoColors:        config.NoColors,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, s[len(s)-1])
		},
	})
	logger.SetReportCaller(config.Caller)

	var closer io.Closer = nopCloser{}
	writers := []io.Writer{os.Stderr}
	if config.File != "" {
		file := &lumberjack.Logger{
			Filename:   config.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    config.MaxSizeMB,
			MaxAge:     config.MaxAgeDays,
			MaxBackups: config.MaxBackups,
		}
		writers = append(writers, file)
		closer = file
	}
	logger.SetOutput(io.MultiWriter(writers...))

	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
