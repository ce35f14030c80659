// Package plugin runs external action executables when a menu element
// activates.
package plugin

import (
	"encoding/json"
	"time"
)

// Manifest describes a plugin's metadata and the actions it accepts.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Supports reports whether the manifest lists action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is written to the plugin's stdin as a single JSON document.
type Request struct {
	Action       string          `json:"action"`
	Element      string          `json:"element"`
	Label        string          `json:"label"`
	ActivationID string          `json:"activation_id"`
	ActivatedAt  time.Time       `json:"activated_at"`
	Params       json.RawMessage `json:"params,omitempty"`
}

// Response is read back from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Binding attaches a plugin action to a dwell element.
type Binding struct {
	Element string         `yaml:"element" json:"element" validate:"required"`
	Plugin  string         `yaml:"plugin" json:"plugin" validate:"required"`
	Action  string         `yaml:"action" json:"action" validate:"required"`
	Params  map[string]any `yaml:"params" json:"params,omitempty"`
}

// Config locates plugins and binds them to elements.
type Config struct {
	Dir      string        `yaml:"dir" json:"dir"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`
	Bindings []Binding     `yaml:"bindings" json:"bindings" validate:"dive"`
}

// DefaultConfig looks for plugins under ./plugins with a five second timeout.
func DefaultConfig() Config {
	return Config{
		Dir:     "plugins",
		Timeout: 5 * time.Second,
	}
}
