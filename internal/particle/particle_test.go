package particle

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/face"
)

const (
	epsilon = 1e-9
	frame   = 100 * time.Millisecond
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Count = 200
	cfg.Seed = 42
	return cfg
}

func neutral() Inputs {
	return Inputs{Density: 0.5, HandHeight: 0.5}
}

func TestNewAnimator(t *testing.T) {
	a := NewAnimator(testConfig())

	f := a.Field()
	if f.Velocity != 0.002 {
		t.Errorf("velocity = %f, want 0.002", f.Velocity)
	}
	if f.Scale != 1 {
		t.Errorf("scale = %f, want 1", f.Scale)
	}
	if f.Shape != ShapeSphere {
		t.Errorf("shape = %s, want sphere", f.Shape)
	}
	if len(a.Particles()) != 200 {
		t.Fatalf("particles = %d, want 200", len(a.Particles()))
	}

	for i, p := range a.Particles() {
		if p.Theta < 0 || p.Theta >= 2*math.Pi {
			t.Fatalf("particle %d: theta %f out of range", i, p.Theta)
		}
		if p.Offset < 0 || p.Offset >= 1 {
			t.Fatalf("particle %d: offset %f out of range", i, p.Offset)
		}
		if p.Y < -0.25 || p.Y >= 0.25 {
			t.Fatalf("particle %d: y %f out of range", i, p.Y)
		}
		if p.Scale < 0.05 || p.Scale >= 0.15 {
			t.Fatalf("particle %d: scale %f out of range", i, p.Scale)
		}
	}
}

func TestAnimator_Deterministic(t *testing.T) {
	a := NewAnimator(testConfig())
	b := NewAnimator(testConfig())

	in := neutral()
	in.PointingDirection = 1
	in.Expressions = &face.Expressions{Smile: true, HeadTurn: 0.6}
	for i := 0; i < 20; i++ {
		a.Step(frame, in)
		b.Step(frame, in)
	}

	if !slices.Equal(a.Particles(), b.Particles()) {
		t.Error("same seed produced different particles")
	}
	if a.Field() != b.Field() {
		t.Errorf("fields differ: %+v vs %+v", a.Field(), b.Field())
	}
}

func TestAnimator_Velocity(t *testing.T) {
	t.Run("accelerates toward pointing and saturates", func(t *testing.T) {
		a := NewAnimator(testConfig())
		in := neutral()
		in.PointingDirection = 1

		a.Step(frame, in)
		if got := a.Field().Velocity; math.Abs(got-0.052) > epsilon {
			t.Errorf("velocity = %f, want 0.052", got)
		}

		for i := 0; i < 100; i++ {
			a.Step(frame, in)
		}
		if got := a.Field().Velocity; got != 2 {
			t.Errorf("velocity = %f, want max 2", got)
		}

		in.PointingDirection = -1
		for i := 0; i < 200; i++ {
			a.Step(frame, in)
		}
		if got := a.Field().Velocity; got != -2 {
			t.Errorf("velocity = %f, want -2", got)
		}
	})

	t.Run("keeps speed without pointing", func(t *testing.T) {
		a := NewAnimator(testConfig())
		for i := 0; i < 10; i++ {
			a.Step(frame, neutral())
		}
		if got := a.Field().Velocity; got != 0.002 {
			t.Errorf("velocity = %f, want 0.002", got)
		}
		if got := a.Field().Rotation; math.Abs(got-0.002) > epsilon {
			t.Errorf("rotation = %f, want 0.002", got)
		}
	})
}

func TestAnimator_Smoothing(t *testing.T) {
	a := NewAnimator(testConfig())
	in := neutral()
	in.HandHeight = 0
	in.HandTilt = 1
	in.HandSpan = 0.4

	a.Step(frame, in)
	f := a.Field()
	if math.Abs(f.OffsetY-0.7) > epsilon {
		t.Errorf("offset y = %f, want 0.7", f.OffsetY)
	}
	if math.Abs(f.Tilt-0.1) > epsilon {
		t.Errorf("tilt = %f, want 0.1", f.Tilt)
	}
	if math.Abs(f.Scale-0.98) > epsilon {
		t.Errorf("scale = %f, want 0.98", f.Scale)
	}

	for i := 0; i < 300; i++ {
		a.Step(frame, in)
	}
	f = a.Field()
	if math.Abs(f.OffsetY-7) > 1e-6 {
		t.Errorf("offset y = %f, want 7", f.OffsetY)
	}
	if math.Abs(f.Scale-0.8) > 1e-6 {
		t.Errorf("scale = %f, want 0.8", f.Scale)
	}

	in.HandSpan = 0
	for i := 0; i < 300; i++ {
		a.Step(frame, in)
	}
	if got := a.Field().Scale; math.Abs(got-1) > 1e-6 {
		t.Errorf("scale = %f, want 1 without span", got)
	}
}

func TestAnimator_Radius(t *testing.T) {
	cfg := testConfig()
	cfg.DriftAmplitude = 0
	a := NewAnimator(cfg)
	p := &Particle{Offset: 0.5}

	tests := []struct {
		density float64
		want    float64
	}{
		{1, 2},
		{0.5, 2.75},
		{0, 3.5},
		{2, 2},
		{-1, 3.5},
	}
	for _, tt := range tests {
		if got := a.Radius(p, tt.density, 0); math.Abs(got-tt.want) > epsilon {
			t.Errorf("Radius(density %f) = %f, want %f", tt.density, got, tt.want)
		}
	}
}

func TestAnimator_DriftIsBounded(t *testing.T) {
	a := NewAnimator(testConfig())
	for _, p := range a.Particles() {
		for _, ts := range []float64{0, 0.7, 3.1, 10} {
			r := a.Radius(&p, 1, ts)
			if r < 1.9-epsilon || r > 2.1+epsilon {
				t.Fatalf("radius %f outside drift band", r)
			}
		}
	}
}

func TestAnimator_Placement(t *testing.T) {
	cfg := testConfig()
	cfg.DriftAmplitude = 0
	cfg.InitialVelocity = 0
	a := NewAnimator(cfg)

	a.Step(frame, Inputs{Density: 1, HandHeight: 0.5})

	for i, p := range a.Particles() {
		want := [3]float64{2 * math.Cos(p.Theta), p.Y, 2 * math.Sin(p.Theta)}
		got := [3]float64{p.Position.X, p.Position.Y, p.Position.Z}
		for k := range want {
			if math.Abs(got[k]-want[k]) > epsilon {
				t.Fatalf("particle %d: position %v, want %v", i, got, want)
			}
		}
	}
}

func TestAnimator_Falling(t *testing.T) {
	t.Run("no smile never falls", func(t *testing.T) {
		cfg := testConfig()
		cfg.FallChance = 1
		a := NewAnimator(cfg)

		in := neutral()
		in.Expressions = &face.Expressions{}
		for i := 0; i < 10; i++ {
			a.Step(frame, in)
		}
		if got := a.Field().Falling; got != 0 {
			t.Errorf("falling = %d, want 0", got)
		}
	})

	t.Run("no face never falls", func(t *testing.T) {
		cfg := testConfig()
		cfg.FallChance = 1
		a := NewAnimator(cfg)
		a.Step(frame, neutral())
		if got := a.Field().Falling; got != 0 {
			t.Errorf("falling = %d, want 0", got)
		}
	})

	t.Run("smiling particles fall and respawn", func(t *testing.T) {
		cfg := testConfig()
		cfg.FallChance = 1
		a := NewAnimator(cfg)

		in := neutral()
		in.Expressions = &face.Expressions{Smile: true}
		a.Step(frame, in)
		if got := a.Field().Falling; got != cfg.Count {
			t.Fatalf("falling = %d, want %d", got, cfg.Count)
		}

		before := a.Particles()[0].Position.Y
		in.Expressions = &face.Expressions{}
		a.Step(frame, in)
		if after := a.Particles()[0].Position.Y; after >= before {
			t.Errorf("falling particle rose: %f -> %f", before, after)
		}

		for i := 0; i < 40; i++ {
			a.Step(frame, in)
		}
		if got := a.Field().Falling; got != 0 {
			t.Errorf("falling = %d after respawn window, want 0", got)
		}
		for i, p := range a.Particles() {
			if p.Falling {
				t.Fatalf("particle %d still falling", i)
			}
			if p.Position.Y < -1 {
				t.Fatalf("particle %d did not rejoin the ring: y=%f", i, p.Position.Y)
			}
		}
	})

	t.Run("small chance falls a few", func(t *testing.T) {
		cfg := testConfig()
		cfg.Count = 2000
		a := NewAnimator(cfg)
		in := neutral()
		in.Expressions = &face.Expressions{Smile: true}
		a.Step(frame, in)

		got := a.Field().Falling
		if got == 0 || got > cfg.Count/4 {
			t.Errorf("falling = %d, want a small nonzero share", got)
		}
	})
}

func TestAnimator_ShapeFollowsMouth(t *testing.T) {
	a := NewAnimator(testConfig())
	in := neutral()
	in.Expressions = &face.Expressions{MouthOpen: 0.9}

	for i := 0; i < 10; i++ {
		a.Step(frame, in)
	}
	if got := a.Field().Shape; got != ShapeCube {
		t.Errorf("shape = %s, want cube", got)
	}

	// Losing the face freezes the shape.
	in.Expressions = nil
	for i := 0; i < 30; i++ {
		a.Step(frame, in)
	}
	if got := a.Field().Shape; got != ShapeCube {
		t.Errorf("shape = %s, want cube", got)
	}
}

func TestAnimator_HueDrift(t *testing.T) {
	t.Run("turn beyond minimum advances hue", func(t *testing.T) {
		a := NewAnimator(testConfig())
		in := neutral()
		in.Expressions = &face.Expressions{HeadTurn: 0.5}

		a.Step(frame, in)
		hue := a.Field().Hue
		if math.Abs(hue-204.5) > epsilon {
			t.Fatalf("hue = %f, want 204.5", hue)
		}

		recolored := 0
		for _, p := range a.Particles() {
			if p.Hue == hue {
				recolored++
			}
		}
		// About 0.5 * 0.05 * 200 draws, with possible repeats.
		if recolored == 0 || recolored > 6 {
			t.Errorf("recolored = %d, want a small sample", recolored)
		}

		for i := 0; i < 9; i++ {
			a.Step(frame, in)
		}
		if got := a.Field().Hue; math.Abs(got-245) > 1e-6 {
			t.Errorf("hue = %f, want 245", got)
		}
	})

	t.Run("negative turn wraps", func(t *testing.T) {
		cfg := testConfig()
		cfg.BaseHue = 1
		a := NewAnimator(cfg)
		in := neutral()
		in.Expressions = &face.Expressions{HeadTurn: -1}

		a.Step(frame, in)
		if got := a.Field().Hue; math.Abs(got-352) > epsilon {
			t.Errorf("hue = %f, want 352", got)
		}
	})

	t.Run("losing the face freezes hue", func(t *testing.T) {
		a := NewAnimator(testConfig())
		in := neutral()
		in.Expressions = &face.Expressions{HeadTurn: 0.5}
		for i := 0; i < 5; i++ {
			a.Step(frame, in)
		}
		hue := a.Field().Hue
		if hue == 200 {
			t.Fatal("hue did not drift")
		}
		before := a.AppendParticles(nil)

		in.Expressions = nil
		for i := 0; i < 30; i++ {
			a.Step(frame, in)
		}
		if got := a.Field().Hue; got != hue {
			t.Errorf("hue = %f, want frozen at %f", got, hue)
		}
		for i, p := range a.Particles() {
			if p.Hue != before[i].Hue {
				t.Fatalf("particle %d hue = %f, want %f", i, p.Hue, before[i].Hue)
			}
		}
	})

	t.Run("small turn is ignored", func(t *testing.T) {
		a := NewAnimator(testConfig())
		in := neutral()
		in.Expressions = &face.Expressions{HeadTurn: 0.2}
		for i := 0; i < 10; i++ {
			a.Step(frame, in)
		}
		if got := a.Field().Hue; got != 200 {
			t.Errorf("hue = %f, want 200", got)
		}
		for _, p := range a.Particles() {
			if p.Hue != 200 {
				t.Fatalf("particle recolored to %f", p.Hue)
			}
		}
	})
}

func TestAnimator_AppendParticlesCopies(t *testing.T) {
	a := NewAnimator(testConfig())
	cp := a.AppendParticles(nil)
	cp[0].Hue = -1

	if a.Particles()[0].Hue == -1 {
		t.Error("AppendParticles returned shared storage")
	}
}
