package gesture

import "github.com/ayusman/mudra/internal/detector"

// Options configures an Engine.
type Options struct {
	Thresholds  Thresholds `yaml:"thresholds" json:"thresholds"`
	DensityStep float64    `yaml:"density_step" json:"density_step" validate:"gt=0,lte=1"`
	// TrackIdentity keys wrist vectors by matched identity instead of slot.
	TrackIdentity bool    `yaml:"track_identity" json:"track_identity"`
	MaxJump       float64 `yaml:"max_jump" json:"max_jump" validate:"gte=0"`
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		Thresholds:  DefaultThresholds(),
		DensityStep: 0.01,
		MaxJump:     0.2,
	}
}

// Frame is the hand-side result for one tracker frame.
type Frame struct {
	Hands       []Hand              `json:"hands"`
	Stats       Stats               `json:"stats"`
	Interaction InteractionSnapshot `json:"interaction"`
}

// Engine runs classification, aggregation and interaction mapping, and is the
// single writer of the InteractionState it was given.
type Engine struct {
	classifier *Classifier
	state      *InteractionState
	step       float64
}

// NewEngine creates an Engine writing into state.
func NewEngine(opts Options, state *InteractionState) *Engine {
	c := NewClassifier(opts.Thresholds)
	if opts.TrackIdentity {
		c.TrackIdentity(opts.MaxJump)
	}
	return &Engine{
		classifier: c,
		state:      state,
		step:       opts.DensityStep,
	}
}

// State returns the interaction state the engine writes to.
func (e *Engine) State() *InteractionState {
	return e.state
}

// Process handles one frame of hands. With no hands the stats fall back to
// defaults and pointing stops; density is left where it was.
func (e *Engine) Process(hands []detector.HandLandmarks) Frame {
	if len(hands) == 0 {
		return Frame{
			Hands:       []Hand{},
			Stats:       DefaultStats(),
			Interaction: e.state.Apply(Interaction{}),
		}
	}

	processed := e.classifier.Process(hands)
	return Frame{
		Hands:       processed,
		Stats:       ComputeStats(hands),
		Interaction: e.state.Apply(MapInteraction(processed, hands, e.step)),
	}
}

// Configure replaces the thresholds and density step. Identity tracking is
// fixed at construction.
func (e *Engine) Configure(opts Options) {
	e.classifier.thresholds = opts.Thresholds
	e.step = opts.DensityStep
}
