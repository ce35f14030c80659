// Package dwell implements dwell selection: an element activates once an open
// palm has covered it continuously for the dwell time.
package dwell

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
)

// DefaultDwellTime is how long an open palm must hold over an element.
const DefaultDwellTime = time.Second

// Status is the selection state of one element.
type Status string

const (
	StatusIdle     Status = "IDLE"
	StatusDetected Status = "DETECTED"
	StatusSelected Status = "SELECTED"
)

// Rect is an axis-aligned rectangle in screen pixels.
type Rect struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	W float64 `yaml:"w" json:"w" validate:"gt=0"`
	H float64 `yaml:"h" json:"h" validate:"gt=0"`
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// Expand grows r by pad on every side.
func (r Rect) Expand(pad float64) Rect {
	return Rect{X: r.X - pad, Y: r.Y - pad, W: r.W + 2*pad, H: r.H + 2*pad}
}

// Viewport is the screen size hand coordinates are projected onto.
type Viewport struct {
	Width  float64 `yaml:"width" json:"width" validate:"gt=0"`
	Height float64 `yaml:"height" json:"height" validate:"gt=0"`
}

// Project maps a normalized camera point to screen pixels. The camera feed is
// mirrored, so x is flipped.
func (v Viewport) Project(x, y float64) (float64, float64) {
	return (1 - x) * v.Width, y * v.Height
}

// Element is a selectable screen region.
type Element struct {
	ID     string `yaml:"id" json:"id" validate:"required"`
	Label  string `yaml:"label" json:"label"`
	Bounds Rect   `yaml:"bounds" json:"bounds"`
	// NearPadding expands Bounds for the hover affordance.
	NearPadding float64 `yaml:"near_padding" json:"near_padding" validate:"gte=0"`
}

// State is the selection state of one element.
type State struct {
	Status         Status     `json:"status"`
	SelectionStart *time.Time `json:"selection_start,omitempty"`
}

// ElementState is what a renderer needs to draw one element.
type ElementState struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Bounds   Rect    `json:"bounds"`
	Status   Status  `json:"status"`
	Progress float64 `json:"progress"`
	// Near is set when a hand is inside the padded zone.
	Near bool `json:"near"`
	// GhostX and GhostY locate the nearest-zone hand relative to the
	// element's top-left corner.
	GhostX float64 `json:"ghost_x"`
	GhostY float64 `json:"ghost_y"`
}

// Activation is emitted once per completed dwell.
type Activation struct {
	ID        string    `json:"id"`
	ElementID string    `json:"element_id"`
	Label     string    `json:"label"`
	At        time.Time `json:"at"`
}

// Config configures a Selector.
type Config struct {
	DwellTime time.Duration `yaml:"dwell_time" json:"dwell_time" validate:"gt=0"`
	Viewport  Viewport      `yaml:"viewport" json:"viewport"`
	Elements  []Element     `yaml:"elements" json:"elements" validate:"dive"`
}

// DefaultConfig returns a 1280x720 layout with the visualization launcher in
// the left column and an exit button in the top-right corner.
func DefaultConfig() Config {
	return Config{
		DwellTime: DefaultDwellTime,
		Viewport:  Viewport{Width: 1280, Height: 720},
		Elements: []Element{
			{
				ID:          "spinning_ring",
				Label:       "SPINNING RING",
				Bounds:      Rect{X: 40, Y: 256, W: 120, H: 90},
				NearPadding: 40,
			},
			{
				ID:          "exit",
				Label:       "EXIT",
				Bounds:      Rect{X: 1100, Y: 40, W: 100, H: 100},
				NearPadding: 150,
			},
		},
	}
}

// ActivateFunc is called when an element completes a dwell.
type ActivateFunc func(Activation)

type tracked struct {
	element Element
	state   State
	view    ElementState
}

// Selector runs the dwell state machine for a set of elements. It is driven by
// a single goroutine and is not safe for concurrent use.
type Selector struct {
	config   Config
	elements []*tracked
	onFire   ActivateFunc
	log      logrus.FieldLogger
}

// NewSelector creates a Selector. onFire may be nil.
func NewSelector(config Config, onFire ActivateFunc, log logrus.FieldLogger) *Selector {
	if config.DwellTime <= 0 {
		config.DwellTime = DefaultDwellTime
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Selector{config: config, onFire: onFire, log: log}
	for _, e := range config.Elements {
		s.elements = append(s.elements, &tracked{
			element: e,
			state:   State{Status: StatusIdle},
			view:    ElementState{ID: e.ID, Label: e.Label, Bounds: e.Bounds, Status: StatusIdle},
		})
	}
	return s
}

// Update applies one frame of hands to every element.
func (s *Selector) Update(hands []gesture.Hand, now time.Time) {
	for _, t := range s.elements {
		s.update(t, hands, now)
	}
}

func (s *Selector) update(t *tracked, hands []gesture.Hand, now time.Time) {
	bounds := t.element.Bounds
	near := bounds.Expand(t.element.NearPadding)

	var covered, open, isNear bool
	var gx, gy float64
	for _, h := range hands {
		x, y := s.config.Viewport.Project(h.Coords.X, h.Coords.Y)
		if bounds.Contains(x, y) {
			covered = true
			if h.Gesture == gesture.OpenPalm {
				open = true
			}
		}
		if near.Contains(x, y) {
			isNear = true
			gx, gy = x-bounds.X, y-bounds.Y
		}
	}

	switch {
	case covered && open:
		if t.state.Status != StatusSelected {
			start := now
			t.state = State{Status: StatusSelected, SelectionStart: &start}
		}
	case covered:
		t.state = State{Status: StatusDetected}
	default:
		t.state = State{Status: StatusIdle}
	}

	t.view.Status = t.state.Status
	t.view.Near = isNear
	t.view.GhostX, t.view.GhostY = gx, gy
	if t.state.Status != StatusSelected {
		t.view.Progress = 0
	}
}

// Tick advances dwell progress and fires every element whose dwell completed.
// A fired element is back in IDLE before its callback runs, so a panicking
// callback cannot leave it stuck in SELECTED; the panic is returned as an error.
func (s *Selector) Tick(now time.Time) ([]Activation, error) {
	var fired []Activation
	var firstErr error

	for _, t := range s.elements {
		if t.state.Status != StatusSelected || t.state.SelectionStart == nil {
			t.view.Progress = 0
			continue
		}

		p := float64(now.Sub(*t.state.SelectionStart)) / float64(s.config.DwellTime)
		if p < 0 {
			p = 0
		}
		if p < 1 {
			t.view.Progress = p
			continue
		}

		t.state = State{Status: StatusIdle}
		t.view.Status = StatusIdle
		t.view.Progress = 0

		a := Activation{
			ID:        uuid.NewString(),
			ElementID: t.element.ID,
			Label:     t.element.Label,
			At:        now,
		}
		fired = append(fired, a)

		if err := s.fire(a); err != nil {
			s.log.WithError(err).WithField("element", a.ElementID).Error("Activation callback failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return fired, firstErr
}

// Step is Update followed by Tick.
func (s *Selector) Step(hands []gesture.Hand, now time.Time) ([]Activation, error) {
	s.Update(hands, now)
	return s.Tick(now)
}

func (s *Selector) fire(a Activation) (err error) {
	if s.onFire == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("activation of %q panicked: %v", a.ElementID, r)
		}
	}()
	s.onFire(a)
	return nil
}

// States returns a copy of every element's render state, in config order.
func (s *Selector) States() []ElementState {
	out := make([]ElementState, len(s.elements))
	for i, t := range s.elements {
		out[i] = t.view
	}
	return out
}

// State returns the raw state machine state of one element.
func (s *Selector) State(id string) (State, bool) {
	for _, t := range s.elements {
		if t.element.ID == id {
			return t.state, true
		}
	}
	return State{}, false
}

// SetDwellTime changes the dwell time for selections started afterwards and
// for progress of the current one.
func (s *Selector) SetDwellTime(d time.Duration) {
	if d > 0 {
		s.config.DwellTime = d
	}
}
