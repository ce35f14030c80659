package gesture

import (
	"sync"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geom"
)

// Pointing directions.
const (
	PointLeft  = -1
	PointNone  = 0
	PointRight = 1
)

// DefaultDensity is the density a fresh session starts with.
const DefaultDensity = 0.5

// Interaction is the per-frame outcome of the gesture set.
type Interaction struct {
	PointingDirection int     `json:"pointing_direction"`
	DensityDelta      float64 `json:"density_delta"`
}

// MapInteraction derives pointing direction and density delta from the
// processed hands and their landmarks, which must be index-aligned.
//
// Hands are not combined: a later hand overrides an earlier one for pointing,
// and the last Fist or Open Palm decides the delta.
func MapInteraction(processed []Hand, raw []detector.HandLandmarks, step float64) Interaction {
	var in Interaction
	for i, h := range processed {
		switch h.Gesture {
		case Pointing:
			if raw[i].Points[detector.IndexTip].X < raw[i].Points[detector.Wrist].X {
				in.PointingDirection = PointLeft
			} else {
				in.PointingDirection = PointRight
			}
		case Fist:
			in.DensityDelta = step
		case OpenPalm:
			in.DensityDelta = -step
		}
	}
	return in
}

// InteractionSnapshot is a copy of the interaction state.
type InteractionSnapshot struct {
	PointingDirection int     `json:"pointing_direction"`
	Density           float64 `json:"density"`
}

// InteractionState is the process-wide interaction accumulator. Density
// persists across frames; the pointing direction is replaced every frame.
// Apply is the only mutator and it clamps density to [0, 1].
type InteractionState struct {
	mu       sync.RWMutex
	pointing int
	density  float64
}

// NewInteractionState creates a state starting at the given density.
func NewInteractionState(density float64) *InteractionState {
	return &InteractionState{density: geom.Clamp01(density)}
}

// Apply replaces the pointing direction and adds the density delta.
func (s *InteractionState) Apply(in Interaction) InteractionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pointing = in.PointingDirection
	s.density = geom.Clamp01(s.density + in.DensityDelta)
	return InteractionSnapshot{PointingDirection: s.pointing, Density: s.density}
}

// Snapshot returns the current state.
func (s *InteractionState) Snapshot() InteractionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return InteractionSnapshot{PointingDirection: s.pointing, Density: s.density}
}
