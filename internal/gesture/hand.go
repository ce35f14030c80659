package gesture

import (
	"math"
	"slices"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geom"
)

// screenCenter is the origin of the polar coordinates.
var screenCenter = geom.Vec2{X: 0.5, Y: 0.5}

// Polar locates the wrist relative to the frame center.
type Polar struct {
	// Angle is in whole degrees clockwise from up, in [0, 360).
	Angle float64 `json:"angle"`
	// Distance is 0 at the center and 100 at (or beyond) the frame edge.
	Distance float64 `json:"distance"`
}

// Vector is the wrist displacement since the previous frame.
type Vector struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Hand is one processed hand for a single frame.
type Hand struct {
	// ID is the frame-local index, or a tracked id when identity tracking is on.
	ID      int       `json:"id"`
	Gesture Gesture   `json:"gesture"`
	Coords  geom.Vec2 `json:"coords"`
	Polar   Polar     `json:"polar"`
	Vector  Vector    `json:"vector"`
}

// PolarOf maps a wrist position to polar coordinates around the frame center.
func PolarOf(p geom.Vec2) Polar {
	d := p.Sub(screenCenter)
	return Polar{
		Angle:    geom.Bearing(d),
		Distance: math.Min(100, math.Round(d.Len()/0.5*100)),
	}
}

// Classifier labels hands and tracks their wrist motion between frames.
//
// In the default index mode the previous position is keyed by the hand's slot
// in the frame. The tracker does not guarantee slot order, so when a hand
// appears or disappears the vector can be computed against another hand's
// previous position. Enable identity tracking to key it by matched identity.
type Classifier struct {
	thresholds Thresholds
	prev       map[int]geom.Vec2
	tracker    *Tracker
}

// NewClassifier creates a Classifier in index mode.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{
		thresholds: t,
		prev:       make(map[int]geom.Vec2),
	}
}

// TrackIdentity switches to nearest-neighbour identity assignment. Hands whose
// wrist moved more than maxJump since the last frame get a fresh id.
func (c *Classifier) TrackIdentity(maxJump float64) {
	c.tracker = NewTracker(maxJump)
	c.prev = make(map[int]geom.Vec2)
}

// Process classifies every hand in frame order.
func (c *Classifier) Process(hands []detector.HandLandmarks) []Hand {
	ids := make([]int, len(hands))
	if c.tracker != nil {
		wrists := make([]geom.Vec2, len(hands))
		for i := range hands {
			wrists[i] = hands[i].Wrist().XY()
		}
		ids = c.tracker.Assign(wrists)
	} else {
		for i := range ids {
			ids[i] = i
		}
	}

	out := make([]Hand, len(hands))
	for i := range hands {
		out[i] = c.processOne(&hands[i], ids[i])
	}

	// Tracked ids are never reused, so positions of lost hands can go.
	if c.tracker != nil {
		for id := range c.prev {
			if !slices.Contains(ids, id) {
				delete(c.prev, id)
			}
		}
	}
	return out
}

func (c *Classifier) processOne(h *detector.HandLandmarks, id int) Hand {
	pos := h.Wrist().XY()

	prev, ok := c.prev[id]
	if !ok {
		prev = pos
	}
	c.prev[id] = pos

	return Hand{
		ID:      id,
		Gesture: c.thresholds.Classify(h),
		Coords:  pos,
		Polar:   PolarOf(pos),
		Vector:  Vector{DX: pos.X - prev.X, DY: pos.Y - prev.Y},
	}
}
