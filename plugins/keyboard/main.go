// Package main is a mudra plugin that sends keystrokes when an element
// activates. It uses AppleScript on macOS and xdotool elsewhere.
//
// Binding params:
//
//	key:       the key to press, e.g. "space" or "f"
//	modifiers: any of command, option, control, shift
package main

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ayusman/mudra/internal/plugin"
)

type keystrokeParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"`
}

var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

var xdoModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	plugin.Serve(map[string]plugin.Handler{
		"keystroke": keystroke,
		"shortcut":  keystroke,
	})
}

func keystroke(req *plugin.Request) (any, error) {
	var p keystrokeParams
	if err := req.DecodeParams(&p); err != nil {
		return nil, err
	}
	if p.Key == "" {
		return nil, errors.New("key is required")
	}

	if runtime.GOOS == "darwin" {
		return nil, run("osascript", "-e", appleScript(p.Key, p.Modifiers))
	}
	return nil, run("xdotool", "key", xdoChord(p.Key, p.Modifiers))
}

func appleScript(key string, modifiers []string) string {
	var mods []string
	for _, m := range modifiers {
		if am, ok := appleModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, am)
		}
	}
	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`, key, strings.Join(mods, ", "))
}

func xdoChord(key string, modifiers []string) string {
	var parts []string
	for _, m := range modifiers {
		if xm, ok := xdoModifiers[strings.ToLower(m)]; ok {
			parts = append(parts, xm)
		}
	}
	return strings.Join(append(parts, key), "+")
}

func run(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
