package render

import (
	"image/color"
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/dwell"
	"github.com/ayusman/mudra/internal/geom"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/particle"
)

func TestProjector_Project(t *testing.T) {
	p := NewProjector(800, 600)

	t.Run("origin lands at center", func(t *testing.T) {
		x, y, scale, ok := p.Project(geom.Vec3{})
		if !ok {
			t.Fatal("origin clipped")
		}
		if x != 400 || y != 300 {
			t.Errorf("got (%f, %f), want (400, 300)", x, y)
		}
		if math.Abs(scale-60) > 1e-9 {
			t.Errorf("scale = %f, want 60", scale)
		}
	})

	t.Run("up is up and right is right", func(t *testing.T) {
		x, y, _, _ := p.Project(geom.Vec3{X: 1, Y: 1})
		if x <= 400 || y >= 300 {
			t.Errorf("got (%f, %f)", x, y)
		}
	})

	t.Run("closer points are larger", func(t *testing.T) {
		_, _, far, _ := p.Project(geom.Vec3{Z: -3})
		_, _, near, _ := p.Project(geom.Vec3{Z: 3})
		if near <= far {
			t.Errorf("near scale %f <= far scale %f", near, far)
		}
	})

	t.Run("behind the near plane is clipped", func(t *testing.T) {
		if _, _, _, ok := p.Project(geom.Vec3{Z: 11.8}); ok {
			t.Error("expected clip")
		}
	})
}

func TestHueColor(t *testing.T) {
	tests := []struct {
		h    float64
		want color.RGBA
	}{
		{0, color.RGBA{255, 0, 0, 255}},
		{120, color.RGBA{0, 255, 0, 255}},
		{240, color.RGBA{0, 0, 255, 255}},
		{360, color.RGBA{255, 0, 0, 255}},
		{-120, color.RGBA{0, 0, 255, 255}},
		{60, color.RGBA{255, 255, 0, 255}},
	}
	for _, tt := range tests {
		if got := HueColor(tt.h, 1, 1); got != tt.want {
			t.Errorf("HueColor(%f) = %v, want %v", tt.h, got, tt.want)
		}
	}

	if got := HueColor(200, 0, 0.5); got.R != got.G || got.G != got.B {
		t.Errorf("zero saturation not grey: %v", got)
	}
}

func TestLayout(t *testing.T) {
	scene := Scene{
		Viewport: dwell.Viewport{Width: 1000, Height: 500},
		Elements: []dwell.ElementState{
			{ID: "a", Label: "A", Bounds: dwell.Rect{X: 100, Y: 100, W: 100, H: 50}, Status: dwell.StatusDetected, Progress: 0.5},
			{ID: "b", Label: "B", Bounds: dwell.Rect{X: 0, Y: 0, W: 10, H: 10}, Near: true, GhostX: 5, GhostY: 5},
		},
		Hands: []gesture.Hand{{Gesture: gesture.OpenPalm, Coords: geom.Vec2{X: 0.25, Y: 0.5}}},
		Field: particle.Field{Shape: particle.ShapeCube},
		Particles: []particle.Particle{
			{Position: geom.Vec3{Z: 2}, Scale: 0.1, Hue: 0},
			{Position: geom.Vec3{Z: -2}, Scale: 0.1, Hue: 120},
			{Position: geom.Vec3{Z: 20}, Scale: 0.1},
		},
		Status: "active",
	}

	f := Layout(scene, 500, 250)

	t.Run("sprites are clipped and sorted back to front", func(t *testing.T) {
		if len(f.Sprites) != 2 {
			t.Fatalf("sprites = %d, want 2", len(f.Sprites))
		}
		if f.Sprites[0].Color != HueColor(120, 0.8, 1) {
			t.Errorf("far sprite not first: %+v", f.Sprites[0])
		}
		if f.Sprites[0].Radius >= f.Sprites[1].Radius {
			t.Error("far sprite should be smaller")
		}
		for _, s := range f.Sprites {
			if s.Shape != particle.ShapeCube {
				t.Errorf("shape = %s, want cube", s.Shape)
			}
		}
	})

	t.Run("boxes scale to the output", func(t *testing.T) {
		b := f.Boxes[0]
		if b.X != 50 || b.Y != 50 || b.W != 50 || b.H != 25 {
			t.Errorf("box = %+v", b)
		}
		if b.Color != detectedColor {
			t.Errorf("color = %v, want detected", b.Color)
		}
		g := f.Boxes[1]
		if !g.Near || g.GhostX != 2.5 || g.GhostY != 2.5 {
			t.Errorf("ghost = %+v", g)
		}
		if g.Color != nearColor {
			t.Errorf("color = %v, want near", g.Color)
		}
	})

	t.Run("hands are mirrored", func(t *testing.T) {
		m := f.Markers[0]
		if m.X != 375 || m.Y != 125 {
			t.Errorf("marker at (%f, %f), want (375, 125)", m.X, m.Y)
		}
		if m.Label != string(gesture.OpenPalm) {
			t.Errorf("label = %q", m.Label)
		}
	})

	t.Run("status line first", func(t *testing.T) {
		if len(f.Lines) != 2 || f.Lines[0] != "active" {
			t.Errorf("lines = %q", f.Lines)
		}
	})
}

func TestLayout_NoViewport(t *testing.T) {
	f := Layout(Scene{Hands: []gesture.Hand{{Coords: geom.Vec2{X: 0, Y: 1}}}}, 200, 100)
	if m := f.Markers[0]; m.X != 200 || m.Y != 100 {
		t.Errorf("marker at (%f, %f), want (200, 100)", m.X, m.Y)
	}
}

func TestTriangle(t *testing.T) {
	pts := triangle(100, 100, 10)
	if pts[0].X != 100 || pts[0].Y != 90 {
		t.Errorf("apex = %v, want (100, 90)", pts[0])
	}
	if pts[1].Y != pts[2].Y {
		t.Errorf("base not level: %v", pts)
	}
}
