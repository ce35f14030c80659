// Package main is a mudra plugin for volume and media playback. It uses
// AppleScript on macOS and pactl/playerctl elsewhere.
package main

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/ayusman/mudra/internal/plugin"
)

const defaultStep = 10

type volumeParams struct {
	// Step is the volume change in percent.
	Step int `json:"step"`
}

// command is one OS invocation.
type command []string

type commands struct {
	darwin command
	linux  command
}

// media key codes on macOS.
const (
	keyPlayPause = 100
	keyNext      = 101
	keyPrev      = 98
)

func main() {
	plugin.Serve(map[string]plugin.Handler{
		"volume-up":        volume(+1),
		"volume-down":      volume(-1),
		"volume-mute":      fixed(muteCommands()),
		"media-play-pause": fixed(mediaCommands(keyPlayPause, "play-pause")),
		"media-next":       fixed(mediaCommands(keyNext, "next")),
		"media-prev":       fixed(mediaCommands(keyPrev, "previous")),
	})
}

func volume(sign int) plugin.Handler {
	return func(req *plugin.Request) (any, error) {
		p := volumeParams{Step: defaultStep}
		if err := req.DecodeParams(&p); err != nil {
			return nil, err
		}
		if p.Step <= 0 || p.Step > 100 {
			return nil, fmt.Errorf("step %d out of range", p.Step)
		}
		return nil, volumeCommands(sign*p.Step).run(runtime.GOOS)
	}
}

func fixed(c commands) plugin.Handler {
	return func(*plugin.Request) (any, error) {
		return nil, c.run(runtime.GOOS)
	}
}

func volumeCommands(delta int) commands {
	return commands{
		darwin: command{"osascript", "-e",
			fmt.Sprintf("set volume output volume ((output volume of (get volume settings)) + %d)", delta)},
		linux: command{"pactl", "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("%+d%%", delta)},
	}
}

func muteCommands() commands {
	return commands{
		darwin: command{"osascript", "-e", "set volume output muted (not (output muted of (get volume settings)))"},
		linux:  command{"pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle"},
	}
}

func mediaCommands(keyCode int, verb string) commands {
	return commands{
		darwin: command{"osascript", "-e", fmt.Sprintf("tell application \"System Events\"\n\tkey code %d\nend tell", keyCode)},
		linux:  command{"playerctl", verb},
	}
}

func (c commands) forOS(goos string) command {
	if goos == "darwin" {
		return c.darwin
	}
	return c.linux
}

func (c commands) run(goos string) error {
	cmd := c.forOS(goos)
	out, err := exec.Command(cmd[0], cmd[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", cmd[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
