package gesture

import (
	"math"
	"sort"

	"github.com/ayusman/mudra/internal/detector"
)

// DefaultHandHeight is the height reported when no hand is tracked.
const DefaultHandHeight = 0.5

// Stats are aggregate signals across all hands in a frame.
type Stats struct {
	// HandHeight is the mean wrist y (0 top, 1 bottom).
	HandHeight float64 `json:"hand_height"`
	// HandSpan is the wrist-to-wrist distance when exactly two hands are tracked.
	HandSpan float64 `json:"hand_span"`
	// HandTilt is the angle of the left-to-right wrist line in radians.
	HandTilt float64 `json:"hand_tilt"`
}

// DefaultStats is reported for frames without hands.
func DefaultStats() Stats {
	return Stats{HandHeight: DefaultHandHeight}
}

// ComputeStats derives fresh stats for the frame. Span and tilt are only
// defined for exactly two hands and are zero otherwise.
func ComputeStats(hands []detector.HandLandmarks) Stats {
	if len(hands) == 0 {
		return DefaultStats()
	}

	var sumY float64
	for i := range hands {
		sumY += hands[i].Points[detector.Wrist].Y
	}
	s := Stats{HandHeight: sumY / float64(len(hands))}

	if len(hands) == 2 {
		wrists := []detector.Point3D{hands[0].Wrist(), hands[1].Wrist()}
		sort.Slice(wrists, func(i, j int) bool { return wrists[i].X < wrists[j].X })

		dx := wrists[1].X - wrists[0].X
		dy := wrists[1].Y - wrists[0].Y
		s.HandSpan = math.Hypot(dx, dy)
		s.HandTilt = math.Atan2(dy, dx)
	}

	return s
}
