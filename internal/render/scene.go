package render

import (
	"fmt"
	"image/color"
	"slices"

	"github.com/ayusman/mudra/internal/dwell"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/particle"
)

var (
	Background    = color.RGBA{R: 12, G: 12, B: 20, A: 255}
	idleColor     = color.RGBA{R: 110, G: 110, B: 130, A: 255}
	nearColor     = color.RGBA{R: 170, G: 170, B: 200, A: 255}
	detectedColor = color.RGBA{R: 240, G: 180, B: 40, A: 255}
	selectedColor = color.RGBA{R: 60, G: 220, B: 110, A: 255}
	handColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	textColor     = color.RGBA{R: 230, G: 230, B: 230, A: 255}
)

// minSpriteRadius keeps distant particles visible.
const minSpriteRadius = 1.0

// Scene is everything drawn for one frame.
type Scene struct {
	Viewport  dwell.Viewport
	Elements  []dwell.ElementState
	Hands     []gesture.Hand
	Field     particle.Field
	Particles []particle.Particle
	// Status is printed in the top-left corner.
	Status string
}

// Sprite is one projected particle.
type Sprite struct {
	X, Y   float64
	Radius float64
	Shape  particle.Shape
	Color  color.RGBA
	depth  float64
}

// Box is one selectable element in output pixels.
type Box struct {
	X, Y, W, H float64
	Label      string
	Color      color.RGBA
	// Progress is the filled share of the dwell bar.
	Progress float64
	// Ghost marks the nearest hand, relative to the output image, when Near is set.
	Near           bool
	GhostX, GhostY float64
}

// Marker is a hand position in output pixels.
type Marker struct {
	X, Y  float64
	Label string
}

// Frame is a laid-out Scene ready to paint.
type Frame struct {
	Width, Height int
	Sprites       []Sprite
	Boxes         []Box
	Markers       []Marker
	Lines         []string
}

// Layout projects s into a w×h frame. Sprites are ordered back to front.
func Layout(s Scene, w, h int) Frame {
	f := Frame{Width: w, Height: h}
	proj := NewProjector(w, h)

	f.Sprites = make([]Sprite, 0, len(s.Particles))
	for _, p := range s.Particles {
		x, y, scale, ok := proj.Project(p.Position)
		if !ok {
			continue
		}
		v := 1.0
		if p.Falling {
			v = 0.6
		}
		f.Sprites = append(f.Sprites, Sprite{
			X:      x,
			Y:      y,
			Radius: max(p.Scale*scale, minSpriteRadius),
			Shape:  s.Field.Shape,
			Color:  HueColor(p.Hue, 0.8, v),
			depth:  p.Position.Z,
		})
	}
	slices.SortStableFunc(f.Sprites, func(a, b Sprite) int {
		switch {
		case a.depth < b.depth:
			return -1
		case a.depth > b.depth:
			return 1
		}
		return 0
	})

	sx, sy := 1.0, 1.0
	if s.Viewport.Width > 0 && s.Viewport.Height > 0 {
		sx = float64(w) / s.Viewport.Width
		sy = float64(h) / s.Viewport.Height
	}

	for _, e := range s.Elements {
		b := Box{
			X:        e.Bounds.X * sx,
			Y:        e.Bounds.Y * sy,
			W:        e.Bounds.W * sx,
			H:        e.Bounds.H * sy,
			Label:    e.Label,
			Color:    statusColor(e),
			Progress: e.Progress,
			Near:     e.Near,
		}
		if e.Near {
			b.GhostX = b.X + e.GhostX*sx
			b.GhostY = b.Y + e.GhostY*sy
		}
		f.Boxes = append(f.Boxes, b)
	}

	vp := s.Viewport
	if vp.Width <= 0 || vp.Height <= 0 {
		vp = dwell.Viewport{Width: float64(w), Height: float64(h)}
		sx, sy = 1, 1
	}
	for _, hand := range s.Hands {
		x, y := vp.Project(hand.Coords.X, hand.Coords.Y)
		f.Markers = append(f.Markers, Marker{
			X:     x * sx,
			Y:     y * sy,
			Label: string(hand.Gesture),
		})
	}

	if s.Status != "" {
		f.Lines = append(f.Lines, s.Status)
	}
	f.Lines = append(f.Lines, fmt.Sprintf("shape %s  hue %.0f  falling %d", s.Field.Shape, s.Field.Hue, s.Field.Falling))
	return f
}

func statusColor(e dwell.ElementState) color.RGBA {
	switch e.Status {
	case dwell.StatusSelected:
		return selectedColor
	case dwell.StatusDetected:
		return detectedColor
	}
	if e.Near {
		return nearColor
	}
	return idleColor
}
