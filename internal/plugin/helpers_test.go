package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// writePlugin creates dir/name with a plugin.json manifest and an executable
// shell script, and returns the plugin directory.
func writePlugin(t *testing.T, dir, name, script string, actions ...string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	manifest := Manifest{
		Name:       name,
		Version:    "1.0.0",
		Executable: "run.sh",
		Actions:    actions,
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, "run.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return pluginDir
}

func scriptPlugin(t *testing.T, script string) *Plugin {
	t.Helper()
	dir := writePlugin(t, t.TempDir(), "test-plugin", script, "run")
	return &Plugin{
		Manifest:   Manifest{Name: "test-plugin", Executable: "run.sh", Actions: []string{"run"}},
		Path:       dir,
		Executable: filepath.Join(dir, "run.sh"),
	}
}
