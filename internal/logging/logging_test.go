package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		log, closer, err := New(DefaultConfig())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		defer closer.Close()

		if log.GetLevel() != logrus.InfoLevel {
			t.Errorf("level = %s, want info", log.GetLevel())
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Level = "loud"
		if _, _, err := New(cfg); err == nil {
			t.Error("expected error for invalid level")
		}
	})

	t.Run("writes to file", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Level = "debug"
		cfg.NoColors = true
		cfg.File = filepath.Join(t.TempDir(), "mudra.log")

		log, closer, err := New(cfg)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		log.WithField("element", "exit").Debug("Activation fired")
		if err := closer.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		data, err := os.ReadFile(cfg.File)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if !strings.Contains(string(data), "Activation fired") {
			t.Errorf("log file missing entry: %q", data)
		}
		if !strings.Contains(string(data), "exit") {
			t.Errorf("log file missing field: %q", data)
		}
	})
}
