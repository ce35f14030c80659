package app

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dwell"
	"github.com/ayusman/mudra/internal/face"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/particle"
)

// maxFrameStep caps the animation step after a stall or a long idle frame.
const maxFrameStep = 250 * time.Millisecond

// Snapshot is a consistent copy of the state after one frame.
type Snapshot struct {
	Frame       int64                       `json:"frame"`
	At          time.Time                   `json:"at"`
	Mode        string                      `json:"mode"`
	Interaction gesture.InteractionSnapshot `json:"interaction"`
	Stats       gesture.Stats               `json:"stats"`
	Hands       []gesture.Hand              `json:"hands"`
	Expressions *face.Expressions           `json:"expressions"`
	Elements    []dwell.ElementState        `json:"elements"`
	Field       particle.Field              `json:"field"`
}

// Pipeline turns observations into interaction, selection and animation
// state. ProcessFrame and Configure may be called from different goroutines;
// readers use Snapshot and AppendParticles.
//
// Per frame:
//  1. classify hands and update the interaction state
//  2. extract expressions whenever the source reports a face result; frames
//     where the face was not evaluated keep the last expressions
//  3. advance dwell selection, firing completed elements
//  4. step the particle animator by the elapsed time
type Pipeline struct {
	mu        sync.Mutex
	engine    *gesture.Engine
	extractor *face.Extractor
	selector  *dwell.Selector
	animator  *particle.Animator
	frames    int64
	expr      *face.Expressions
	last      time.Time

	snapMu    sync.RWMutex
	snap      Snapshot
	particles []particle.Particle

	log logrus.FieldLogger
}

// NewPipeline builds the per-frame components from cfg. state is written by
// the gesture engine; onActivate runs synchronously when an element fires.
func NewPipeline(cfg *config.Config, state *gesture.InteractionState, onActivate dwell.ActivateFunc, log logrus.FieldLogger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}

	p := &Pipeline{
		engine:    gesture.NewEngine(cfg.Gesture, state),
		extractor: face.NewExtractor(cfg.Face),
		selector:  dwell.NewSelector(cfg.Dwell, onActivate, log),
		animator:  particle.NewAnimator(cfg.Particle),
		log:       log,
	}

	p.snap = Snapshot{
		Interaction: state.Snapshot(),
		Stats:       gesture.DefaultStats(),
		Hands:       []gesture.Hand{},
		Elements:    p.selector.States(),
		Field:       p.animator.Field(),
	}
	p.particles = p.animator.AppendParticles(nil)
	return p
}

// ProcessFrame runs one observation through the pipeline and publishes the
// resulting snapshot.
func (p *Pipeline) ProcessFrame(obs detector.Observation, now time.Time) (Snapshot, []dwell.Activation) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frame := p.engine.Process(obs.Hands)

	if obs.FaceReported() {
		p.expr = p.extractor.Extract(obs.Face)
	}

	fired, err := p.selector.Step(frame.Hands, now)
	if err != nil {
		p.log.WithError(err).Warn("Activation handler failed")
	}

	var dt time.Duration
	if !p.last.IsZero() {
		dt = min(max(now.Sub(p.last), 0), maxFrameStep)
	}
	p.last = now

	p.animator.Step(dt, particle.Inputs{
		PointingDirection: frame.Interaction.PointingDirection,
		Density:           frame.Interaction.Density,
		HandHeight:        frame.Stats.HandHeight,
		HandSpan:          frame.Stats.HandSpan,
		HandTilt:          frame.Stats.HandTilt,
		Expressions:       p.expr,
	})

	p.frames++

	var expr *face.Expressions
	if p.expr != nil {
		e := *p.expr
		expr = &e
	}
	snap := Snapshot{
		Frame:       p.frames,
		At:          now,
		Interaction: frame.Interaction,
		Stats:       frame.Stats,
		Hands:       frame.Hands,
		Expressions: expr,
		Elements:    p.selector.States(),
		Field:       p.animator.Field(),
	}

	p.snapMu.Lock()
	p.snap = snap
	p.particles = p.animator.AppendParticles(p.particles[:0])
	p.snapMu.Unlock()

	return snap, fired
}

// Configure applies the live-tunable parts of cfg. Element layout, particle
// count and identity tracking keep their construction values.
func (p *Pipeline) Configure(cfg *config.Config) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.engine.Configure(cfg.Gesture)
	p.extractor = face.NewExtractor(cfg.Face)
	p.selector.SetDwellTime(cfg.Dwell.DwellTime)
	p.animator.SetConfig(cfg.Particle)
}

// Frames returns the number of processed frames.
func (p *Pipeline) Frames() int64 {
	p.snapMu.RLock()
	defer p.snapMu.RUnlock()
	return p.snap.Frame
}

// Snapshot returns the state after the most recent frame.
func (p *Pipeline) Snapshot() Snapshot {
	p.snapMu.RLock()
	defer p.snapMu.RUnlock()

	s := p.snap
	s.Hands = append([]gesture.Hand{}, p.snap.Hands...)
	s.Elements = append([]dwell.ElementState{}, p.snap.Elements...)
	return s
}

// AppendParticles appends a copy of the particles from the most recent frame.
func (p *Pipeline) AppendParticles(dst []particle.Particle) []particle.Particle {
	p.snapMu.RLock()
	defer p.snapMu.RUnlock()
	return append(dst, p.particles...)
}
