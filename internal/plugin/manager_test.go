package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

func TestManager_Discover(t *testing.T) {
	dir := t.TempDir()
	pluginDir := writePlugin(t, dir, "notify", "#!/bin/sh\n", "show", "clear")
	writePlugin(t, dir, "keys", "#!/bin/sh\n", "press")

	log, _ := test.NewNullLogger()
	m := NewManager(dir, log)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := m.List()
	if len(plugins) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(plugins))
	}
	if plugins[0].Manifest.Name != "keys" || plugins[1].Manifest.Name != "notify" {
		t.Errorf("List() not sorted: %s, %s", plugins[0].Manifest.Name, plugins[1].Manifest.Name)
	}

	p, err := m.Get("notify")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.Path != pluginDir {
		t.Errorf("path = %q, want %q", p.Path, pluginDir)
	}
	if p.Executable != filepath.Join(pluginDir, "run.sh") {
		t.Errorf("executable = %q", p.Executable)
	}
	if !p.Manifest.Supports("clear") || p.Manifest.Supports("press") {
		t.Errorf("actions = %v", p.Manifest.Actions)
	}
}

func TestManager_Discover_SkipsBadManifests(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "good", "#!/bin/sh\n", "run")

	bad := filepath.Join(dir, "bad")
	if err := os.MkdirAll(bad, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, "plugin.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	unnamed := filepath.Join(dir, "unnamed")
	if err := os.MkdirAll(unnamed, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(unnamed, "plugin.json"), []byte(`{"executable":"x"}`), 0644); err != nil {
		t.Fatal(err)
	}

	// Directories without a manifest are ignored silently.
	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0755); err != nil {
		t.Fatal(err)
	}

	log, hook := test.NewNullLogger()
	m := NewManager(dir, log)
	if err := m.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if n := len(m.List()); n != 1 {
		t.Errorf("expected 1 plugin, got %d", n)
	}
	if n := len(hook.AllEntries()); n != 2 {
		t.Errorf("expected 2 warnings, got %d", n)
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	for _, dir := range []string{"", "/path/that/does/not/exist"} {
		m := NewManager(dir, nil)
		if err := m.Discover(); err != nil {
			t.Errorf("Discover(%q) error = %v", dir, err)
		}
		if n := len(m.List()); n != 0 {
			t.Errorf("Discover(%q) found %d plugins", dir, n)
		}
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get("missing"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("Get() error = %v, want ErrPluginNotFound", err)
	}
}

func TestManager_Rediscover(t *testing.T) {
	dir := t.TempDir()
	pluginDir := writePlugin(t, dir, "notify", "#!/bin/sh\n", "show")

	m := NewManager(dir, nil)
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(pluginDir); err != nil {
		t.Fatal(err)
	}
	if err := m.Discover(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get("notify"); !errors.Is(err, ErrPluginNotFound) {
		t.Error("removed plugin still listed after rediscovery")
	}
}
