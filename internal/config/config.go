// Package config loads mudra configuration from defaults, a YAML file, the
// environment and persisted runtime settings, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dwell"
	"github.com/ayusman/mudra/internal/face"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/particle"
	"github.com/ayusman/mudra/internal/plugin"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MUDRA_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Landmark sources.
const (
	SourceCamera = "camera"
	SourceReplay = "replay"
	SourceMock   = "mock"
)

// UI modes.
const (
	UITray   = "tray"
	UIViewer = "viewer"
	UINone   = "none"
)

// StoreConfig locates the database.
type StoreConfig struct {
	Path string `yaml:"path" json:"path" validate:"required"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address; empty disables the server.
	Addr      string `yaml:"addr" json:"addr"`
	StaticDir string `yaml:"static_dir" json:"static_dir"`
	// BroadcastHz caps websocket state pushes per second.
	BroadcastHz float64 `yaml:"broadcast_hz" json:"broadcast_hz" validate:"gt=0,lte=120"`
}

// SourceConfig selects where landmarks come from.
type SourceConfig struct {
	Kind       string `yaml:"kind" json:"kind" validate:"oneof=camera replay mock"`
	ReplayPath string `yaml:"replay_path" json:"replay_path" validate:"required_if=Kind replay"`
	Loop       bool   `yaml:"loop" json:"loop"`
}

// PipelineConfig controls frame orchestration.
type PipelineConfig struct {
	// ReplayFPS paces replayed observations.
	ReplayFPS int `yaml:"replay_fps" json:"replay_fps" validate:"gt=0"`
	// PersistDensity restores the last session's density on start.
	PersistDensity bool `yaml:"persist_density" json:"persist_density"`
}

// UIConfig selects the local front end.
type UIConfig struct {
	Mode   string `yaml:"mode" json:"mode" validate:"oneof=tray viewer none"`
	Width  int    `yaml:"width" json:"width" validate:"gt=0"`
	Height int    `yaml:"height" json:"height" validate:"gt=0"`
	// ExitElement quits the application when activated; empty disables it.
	ExitElement string `yaml:"exit_element" json:"exit_element"`
}

// Config is the complete application configuration.
type Config struct {
	Log      logging.Config       `yaml:"log" json:"log"`
	Store    StoreConfig          `yaml:"store" json:"store"`
	Server   ServerConfig         `yaml:"server" json:"server"`
	Source   SourceConfig         `yaml:"source" json:"source"`
	Capture  capture.Config       `yaml:"capture" json:"capture"`
	Motion   capture.MotionConfig `yaml:"motion" json:"motion"`
	Gate     capture.GateConfig   `yaml:"gate" json:"gate"`
	Detector detector.Config      `yaml:"detector" json:"detector"`
	Pipeline PipelineConfig       `yaml:"pipeline" json:"pipeline"`
	Gesture  gesture.Options      `yaml:"gesture" json:"gesture"`
	Face     face.Config          `yaml:"face" json:"face"`
	Dwell    dwell.Config         `yaml:"dwell" json:"dwell"`
	Particle particle.Config      `yaml:"particle" json:"particle"`
	Plugins  plugin.Config        `yaml:"plugins" json:"plugins"`
	UI       UIConfig             `yaml:"ui" json:"ui"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:   logging.DefaultConfig(),
		Store: StoreConfig{Path: "mudra.db"},
		Server: ServerConfig{
			Addr:        "127.0.0.1:8420",
			BroadcastHz: 15,
		},
		Source:   SourceConfig{Kind: SourceCamera},
		Capture:  capture.DefaultConfig(),
		Motion:   capture.DefaultMotionConfig(),
		Gate:     capture.DefaultGateConfig(),
		Detector: detector.DefaultConfig(),
		Pipeline: PipelineConfig{
			ReplayFPS:      30,
			PersistDensity: true,
		},
		Gesture:  gesture.DefaultOptions(),
		Face:     face.DefaultConfig(),
		Dwell:    dwell.DefaultConfig(),
		Particle: particle.DefaultConfig(),
		Plugins:  plugin.DefaultConfig(),
		UI:       UIConfig{Mode: UITray, Width: 1280, Height: 720, ExitElement: "exit"},
	}
}

// Load builds a Config. A .env file in the working directory is loaded into the
// environment first if present. path may be empty, in which case MUDRA_CONFIG
// is consulted; with neither, only defaults and environment apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv applies MUDRA_<KEY> overrides for every setting key, with dots
// replaced by underscores. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, key := range Keys() {
		v, ok := lookup(EnvName(key))
		if !ok {
			continue
		}
		if err := c.Set(key, v); err != nil {
			return fmt.Errorf("env %s: %w", EnvName(key), err)
		}
	}
	return nil
}

// ApplyOverrides applies persisted runtime settings. Unknown and startup-only
// keys are returned as errors so stale rows surface in the log.
func (c *Config) ApplyOverrides(overrides map[string]string) error {
	var errs []error
	for key, v := range overrides {
		s, ok := settings[key]
		if !ok || !s.live {
			errs = append(errs, fmt.Errorf("setting %s: %w", key, ErrUnknownSetting))
			continue
		}
		if err := s.set(c, v); err != nil {
			errs = append(errs, fmt.Errorf("setting %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	seen := make(map[string]bool, len(c.Dwell.Elements))
	for _, e := range c.Dwell.Elements {
		if seen[e.ID] {
			return fmt.Errorf("%w: duplicate dwell element %q", ErrInvalid, e.ID)
		}
		seen[e.ID] = true
	}
	for _, b := range c.Plugins.Bindings {
		if !seen[b.Element] {
			return fmt.Errorf("%w: plugin binding for unknown element %q", ErrInvalid, b.Element)
		}
	}
	return nil
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Dwell.Elements = append([]dwell.Element(nil), c.Dwell.Elements...)
	cp.Plugins.Bindings = append([]plugin.Binding(nil), c.Plugins.Bindings...)
	return &cp
}
