package app

import (
	"math"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dwell"
	"github.com/ayusman/mudra/internal/gesture"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// testConfig lays out a single 200x200 element in the middle of a 1000x1000
// viewport, so a wrist at (0.5, 0.5) covers it.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Particle.Count = 100
	cfg.Pipeline.ReplayFPS = 200
	cfg.Dwell.Viewport = dwell.Viewport{Width: 1000, Height: 1000}
	cfg.Dwell.Elements = []dwell.Element{{
		ID:          "menu",
		Label:       "MENU",
		Bounds:      dwell.Rect{X: 400, Y: 400, W: 200, H: 200},
		NearPadding: 50,
	}}
	return cfg
}

func newTestPipeline(cfg *config.Config, onActivate dwell.ActivateFunc) *Pipeline {
	return NewPipeline(cfg, gesture.NewInteractionState(gesture.DefaultDensity), onActivate, nil)
}

func palmAtCenter() detector.Observation {
	return detector.Observation{Hands: []detector.HandLandmarks{detector.OpenPalmLandmarks().At(0.5, 0.5)}}
}

func TestPipeline_InitialSnapshot(t *testing.T) {
	p := newTestPipeline(testConfig(), nil)
	s := p.Snapshot()

	if s.Frame != 0 {
		t.Errorf("frame = %d, want 0", s.Frame)
	}
	if s.Interaction.Density != 0.5 {
		t.Errorf("density = %f, want 0.5", s.Interaction.Density)
	}
	if s.Stats.HandHeight != 0.5 {
		t.Errorf("hand height = %f, want 0.5", s.Stats.HandHeight)
	}
	if s.Hands == nil || len(s.Hands) != 0 {
		t.Errorf("hands = %v, want empty", s.Hands)
	}
	if len(s.Elements) != 1 || s.Elements[0].Status != dwell.StatusIdle {
		t.Errorf("elements = %+v", s.Elements)
	}
	if n := len(p.AppendParticles(nil)); n != 100 {
		t.Errorf("particles = %d, want 100", n)
	}
}

func TestPipeline_FistRaisesDensity(t *testing.T) {
	p := newTestPipeline(testConfig(), nil)
	obs := detector.Observation{Hands: []detector.HandLandmarks{detector.FistLandmarks()}}

	for i := 0; i < 10; i++ {
		p.ProcessFrame(obs, t0.Add(time.Duration(i)*33*time.Millisecond))
	}

	s := p.Snapshot()
	if math.Abs(s.Interaction.Density-0.6) > 1e-9 {
		t.Errorf("density = %f, want 0.6", s.Interaction.Density)
	}
	if s.Frame != 10 {
		t.Errorf("frame = %d, want 10", s.Frame)
	}
	if len(s.Hands) != 1 || s.Hands[0].Gesture != gesture.Fist {
		t.Errorf("hands = %+v", s.Hands)
	}
}

func TestPipeline_StaggeredFace(t *testing.T) {
	p := newTestPipeline(testConfig(), nil)

	smile := detector.NeutralFacePose()
	smile.MouthRatio = 0.5
	withFace := detector.Observation{
		Hands:         []detector.HandLandmarks{detector.FistLandmarks()},
		Face:          detector.SyntheticFace(smile),
		FaceEvaluated: true,
	}
	skipped := detector.Observation{Hands: withFace.Hands}

	// The source evaluates the face on frames 1, 5, 9, ... out of phase with
	// any fixed schedule in the pipeline.
	seen := 0
	for i := 0; i < 40; i++ {
		obs := skipped
		if i%4 == 1 {
			obs = withFace
		}
		s, _ := p.ProcessFrame(obs, t0.Add(time.Duration(i)*time.Millisecond))
		if i == 0 {
			if s.Expressions != nil {
				t.Fatal("expressions before any face arrived")
			}
			continue
		}
		if s.Expressions == nil {
			t.Fatalf("frame %d: expressions dropped between face frames", i)
		}
		if !s.Expressions.Smile {
			t.Errorf("frame %d: smile = false, want true", i)
		}
		seen++
	}
	if seen != 39 {
		t.Errorf("frames with expressions = %d, want 39", seen)
	}

	t.Run("EvaluatedWithoutFace", func(t *testing.T) {
		s, _ := p.ProcessFrame(detector.Observation{FaceEvaluated: true}, t0.Add(time.Second))
		if s.Expressions != nil {
			t.Error("expressions kept after the face was lost")
		}
		s, _ = p.ProcessFrame(skipped, t0.Add(time.Second+time.Millisecond))
		if s.Expressions != nil {
			t.Error("unevaluated frame restored expressions")
		}
	})
}

func TestPipeline_DwellActivation(t *testing.T) {
	var got []dwell.Activation
	p := newTestPipeline(testConfig(), func(a dwell.Activation) { got = append(got, a) })

	p.ProcessFrame(palmAtCenter(), t0)
	s, fired := p.ProcessFrame(palmAtCenter(), t0.Add(500*time.Millisecond))
	if len(fired) != 0 {
		t.Fatalf("fired early: %+v", fired)
	}
	if s.Elements[0].Status != dwell.StatusSelected {
		t.Errorf("status = %s, want SELECTED", s.Elements[0].Status)
	}
	if math.Abs(s.Elements[0].Progress-0.5) > 1e-9 {
		t.Errorf("progress = %f, want 0.5", s.Elements[0].Progress)
	}

	s, fired = p.ProcessFrame(palmAtCenter(), t0.Add(time.Second))
	if len(fired) != 1 || fired[0].ElementID != "menu" {
		t.Fatalf("fired = %+v, want menu", fired)
	}
	if len(got) != 1 || got[0].ID != fired[0].ID {
		t.Errorf("callback saw %+v", got)
	}
	if s.Elements[0].Status != dwell.StatusIdle {
		t.Errorf("status after firing = %s, want IDLE", s.Elements[0].Status)
	}
}

func TestPipeline_FrameStepIsCapped(t *testing.T) {
	p := newTestPipeline(testConfig(), nil)

	p.ProcessFrame(detector.Observation{}, t0)
	if e := p.Snapshot().Field.Elapsed; e != 0 {
		t.Errorf("first frame elapsed = %f, want 0", e)
	}

	p.ProcessFrame(detector.Observation{}, t0.Add(10*time.Second))
	if e := p.Snapshot().Field.Elapsed; math.Abs(e-maxFrameStep.Seconds()) > 1e-9 {
		t.Errorf("elapsed = %f, want %f", e, maxFrameStep.Seconds())
	}

	// A clock going backwards does not rewind the animation.
	p.ProcessFrame(detector.Observation{}, t0)
	if e := p.Snapshot().Field.Elapsed; math.Abs(e-maxFrameStep.Seconds()) > 1e-9 {
		t.Errorf("elapsed = %f after clock skew", e)
	}
}

func TestPipeline_Configure(t *testing.T) {
	p := newTestPipeline(testConfig(), nil)

	next := testConfig()
	next.Dwell.DwellTime = 2 * time.Second
	next.Gesture.DensityStep = 0.1
	p.Configure(next)

	p.ProcessFrame(palmAtCenter(), t0)
	if _, fired := p.ProcessFrame(palmAtCenter(), t0.Add(time.Second)); len(fired) != 0 {
		t.Error("fired before the new dwell time")
	}
	if _, fired := p.ProcessFrame(palmAtCenter(), t0.Add(2*time.Second)); len(fired) != 1 {
		t.Error("did not fire at the new dwell time")
	}

	// Three open palm frames at the new step.
	if d := p.Snapshot().Interaction.Density; math.Abs(d-0.2) > 1e-9 {
		t.Errorf("density = %f, want 0.2", d)
	}
}

func TestPipeline_SnapshotIsACopy(t *testing.T) {
	p := newTestPipeline(testConfig(), nil)
	p.ProcessFrame(palmAtCenter(), t0)

	s := p.Snapshot()
	s.Hands[0].ID = 99
	s.Elements[0].Label = "changed"

	again := p.Snapshot()
	if again.Hands[0].ID == 99 || again.Elements[0].Label == "changed" {
		t.Error("Snapshot() shares storage with the pipeline")
	}
}
