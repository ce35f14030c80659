// Package tray provides a system tray menu for mudra.
package tray

import (
	"context"
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/dwell"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onOpen   func()
	onQuit   func()
	enabled  bool
	last     string
	count    int
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
	menuCount  *systray.MenuItem
}

// New creates a new Tray with the given initial enabled state.
func New(enabled bool) *Tray {
	return &Tray{enabled: enabled}
}

// OnToggle sets the callback run when processing is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpen sets the callback run when the web interface item is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback run when the quit item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray. It blocks until Quit is called and must run on
// the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from any goroutine.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra gesture interface")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume gesture processing")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last activated element")
	t.menuLast.Disable()
	t.menuCount = systray.AddMenuItem(countTitle(t.count), "Activations this session")
	t.menuCount.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuOpen := systray.AddMenuItem("Open Web Interface...", "Open the web interface in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpen.ClickedCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetEnabled updates the toggle without running the callback.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// Record shows an activation in the menu.
func (t *Tray) Record(act dwell.Activation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = act.Label
	if t.last == "" {
		t.last = act.ElementID
	}
	t.count++
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(t.last))
		t.menuCount.SetTitle(countTitle(t.count))
	}
}

// Watch records every activation from ch until ctx is done or ch closes.
func (t *Tray) Watch(ctx context.Context, ch <-chan dwell.Activation) {
	for {
		select {
		case <-ctx.Done():
			return
		case act, ok := <-ch:
			if !ok {
				return
			}
			t.Record(act)
		}
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Last returns the last recorded element label and the activation count.
func (t *Tray) Last() (string, int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last, t.count
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Paused"
}

func lastTitle(label string) string {
	if label == "" {
		return "Last: none"
	}
	return "Last: " + label
}

func countTitle(n int) string {
	return fmt.Sprintf("Activations: %d", n)
}
