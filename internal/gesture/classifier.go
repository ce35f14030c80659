// Package gesture turns tracked hands into gesture labels and the interaction
// signals that drive the particle field.
package gesture

import (
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geom"
)

// Gesture is a discrete hand pose label.
type Gesture string

const (
	// Fist is every fingertip curled toward the wrist.
	Fist Gesture = "Fist"
	// Pointing is the index finger extended with the others curled.
	Pointing Gesture = "Pointing"
	// OpenPalm is the middle, ring and pinky fingers extended.
	OpenPalm Gesture = "Open Palm"
	// Unknown is any pose that fits none of the rules above.
	Unknown Gesture = "Unknown"
)

// Thresholds are the fingertip distance multipliers, in units of the wrist to
// middle MCP length.
type Thresholds struct {
	// Curled is the distance below which a fingertip counts as curled.
	Curled float64 `yaml:"curled" json:"curled" validate:"gt=0"`
	// Extended is the index distance above which the index counts as pointing.
	Extended float64 `yaml:"extended" json:"extended" validate:"gt=0"`
	// Open is the average middle/ring/pinky distance above which the palm is open.
	Open float64 `yaml:"open" json:"open" validate:"gt=0"`
	// MinScale floors the reference length so degenerate hands stay finite.
	MinScale float64 `yaml:"min_scale" json:"min_scale" validate:"gt=0"`
}

// DefaultThresholds returns the multipliers the gestures were tuned with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Curled:   1.4,
		Extended: 1.6,
		Open:     1.5,
		MinScale: geom.Epsilon,
	}
}

// Classify labels a single hand. Rules are evaluated in order and the first
// match wins, so a half-curled peace sign lands in Unknown.
func (t Thresholds) Classify(h *detector.HandLandmarks) Gesture {
	wrist := h.Points[detector.Wrist]

	ref := geom.Distance2D(wrist, h.Points[detector.MiddleMCP])
	if ref < t.MinScale {
		ref = t.MinScale
	}

	index := geom.Distance2D(h.Points[detector.IndexTip], wrist)
	avgCurl := (geom.Distance2D(h.Points[detector.MiddleTip], wrist) +
		geom.Distance2D(h.Points[detector.RingTip], wrist) +
		geom.Distance2D(h.Points[detector.PinkyTip], wrist)) / 3

	switch {
	case index < t.Curled*ref && avgCurl < t.Curled*ref:
		return Fist
	case index > t.Extended*ref && avgCurl < t.Curled*ref:
		return Pointing
	case avgCurl > t.Open*ref:
		return OpenPalm
	default:
		return Unknown
	}
}
