package tray

import (
	"context"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/dwell"
)

func TestTray_Toggle(t *testing.T) {
	tr := New(true)

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("expected enabled after two toggles")
	}
}

func TestTray_SetEnabledSkipsCallback(t *testing.T) {
	tr := New(true)
	called := false
	tr.OnToggle(func(bool) { called = true })

	tr.SetEnabled(false)
	if tr.IsEnabled() || called {
		t.Errorf("enabled = %v called = %v", tr.IsEnabled(), called)
	}
}

func TestTray_Record(t *testing.T) {
	tr := New(true)

	tests := []struct {
		act   dwell.Activation
		label string
	}{
		{dwell.Activation{ElementID: "exit", Label: "EXIT"}, "EXIT"},
		{dwell.Activation{ElementID: "menu"}, "menu"},
	}
	for i, tt := range tests {
		tr.Record(tt.act)
		label, n := tr.Last()
		if label != tt.label || n != i+1 {
			t.Errorf("Last() = %q, %d; want %q, %d", label, n, tt.label, i+1)
		}
	}
}

func TestTray_Watch(t *testing.T) {
	tr := New(true)
	ch := make(chan dwell.Activation, 2)
	ch <- dwell.Activation{ElementID: "a", Label: "A"}
	ch <- dwell.Activation{ElementID: "b", Label: "B"}
	close(ch)

	done := make(chan struct{})
	go func() {
		tr.Watch(context.Background(), ch)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after close")
	}
	if label, n := tr.Last(); label != "B" || n != 2 {
		t.Errorf("Last() = %q, %d", label, n)
	}
}

func TestTray_OpenCallback(t *testing.T) {
	tr := New(true)
	opened := false
	tr.OnOpen(func() { opened = true })
	tr.handleOpen()
	if !opened {
		t.Error("open callback not run")
	}
}
