// Package render lays out a pipeline snapshot in screen space and paints it,
// either into an OpenCV image for the MJPEG preview or into an ebiten window.
package render

import (
	"image/color"
	"math"

	"github.com/ayusman/mudra/internal/geom"
)

// Projector is a pinhole camera on the +Z axis looking at the origin.
type Projector struct {
	Width  float64
	Height float64
	// Distance is the camera's distance from the origin in world units.
	Distance float64
	// Focal is the focal length as a fraction of Height.
	Focal float64
	// Near clips points closer than this to the camera.
	Near float64
}

// NewProjector returns a projector framing the particle ring in a w×h image.
func NewProjector(w, h int) Projector {
	return Projector{
		Width:    float64(w),
		Height:   float64(h),
		Distance: 12,
		Focal:    1.2,
		Near:     0.5,
	}
}

// Project maps a world point to pixels. scale is pixels per world unit at the
// point's depth. ok is false for points behind the near plane.
func (p Projector) Project(v geom.Vec3) (x, y, scale float64, ok bool) {
	depth := p.Distance - v.Z
	if depth < p.Near {
		return 0, 0, 0, false
	}
	scale = p.Focal * p.Height / depth
	x = p.Width/2 + v.X*scale
	y = p.Height/2 - v.Y*scale
	return x, y, scale, true
}

// HueColor converts an HSV colour with h in degrees and s, v in [0, 1].
// h is wrapped into [0, 360).
func HueColor(h, s, v float64) color.RGBA {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clamp01(s)
	v = clamp01(v)

	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return color.RGBA{
		R: uint8(math.Round((r + m) * 255)),
		G: uint8(math.Round((g + m) * 255)),
		B: uint8(math.Round((b + m) * 255)),
		A: 255,
	}
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
