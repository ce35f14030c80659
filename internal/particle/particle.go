// Package particle animates the spinning particle ring from interaction and
// expression signals.
package particle

import (
	"math"
	"math/rand"
	"time"

	"github.com/ayusman/mudra/internal/face"
	"github.com/ayusman/mudra/internal/geom"
)

// Config holds the animation constants.
type Config struct {
	Count int   `yaml:"count" json:"count" validate:"gt=0,lte=100000"`
	Seed  int64 `yaml:"seed" json:"seed"`

	InitialVelocity float64 `yaml:"initial_velocity" json:"initial_velocity"`
	// Acceleration is in rad/s² toward the pointing direction.
	Acceleration float64 `yaml:"acceleration" json:"acceleration" validate:"gte=0"`
	MaxSpeed     float64 `yaml:"max_speed" json:"max_speed" validate:"gt=0"`
	HeightGain   float64 `yaml:"height_gain" json:"height_gain"`
	// Smoothing is the per-frame interpolation factor for height, tilt and scale.
	Smoothing      float64 `yaml:"smoothing" json:"smoothing" validate:"gt=0,lte=1"`
	BaseRadius     float64 `yaml:"base_radius" json:"base_radius" validate:"gt=0"`
	MaxSpread      float64 `yaml:"max_spread" json:"max_spread" validate:"gte=0"`
	DriftAmplitude float64 `yaml:"drift_amplitude" json:"drift_amplitude" validate:"gte=0"`

	FallChance  float64 `yaml:"fall_chance" json:"fall_chance" validate:"gte=0,lte=1"`
	FallGravity float64 `yaml:"fall_gravity" json:"fall_gravity" validate:"gt=0"`
	RespawnY    float64 `yaml:"respawn_y" json:"respawn_y" validate:"lt=0"`

	MouthOpenTrigger float64       `yaml:"mouth_open_trigger" json:"mouth_open_trigger" validate:"gt=0,lt=1"`
	MouthCycle       time.Duration `yaml:"mouth_cycle" json:"mouth_cycle" validate:"gt=0"`
	MouthLockReset   time.Duration `yaml:"mouth_lock_reset" json:"mouth_lock_reset" validate:"gt=0"`

	HeadTurnMin float64 `yaml:"head_turn_min" json:"head_turn_min" validate:"gte=0,lt=1"`
	// HueRate is degrees per second at full head turn.
	HueRate float64 `yaml:"hue_rate" json:"hue_rate" validate:"gte=0"`
	// RecolorFraction is the share of particles recoloured per frame at full turn.
	RecolorFraction float64 `yaml:"recolor_fraction" json:"recolor_fraction" validate:"gte=0,lte=1"`
	BaseHue         float64 `yaml:"base_hue" json:"base_hue" validate:"gte=0,lt=360"`
}

// DefaultConfig returns the tuned animation constants.
func DefaultConfig() Config {
	return Config{
		Count:            2000,
		Seed:             1,
		InitialVelocity:  0.002,
		Acceleration:     0.5,
		MaxSpeed:         2.0,
		HeightGain:       14,
		Smoothing:        0.1,
		BaseRadius:       2.0,
		MaxSpread:        3.0,
		DriftAmplitude:   0.1,
		FallChance:       0.02,
		FallGravity:      5.0,
		RespawnY:         -5.0,
		MouthOpenTrigger: 0.5,
		MouthCycle:       time.Second,
		MouthLockReset:   time.Second,
		HeadTurnMin:      0.2,
		HueRate:          90,
		RecolorFraction:  0.05,
		BaseHue:          200,
	}
}

// Particle is one member of the ring. The first six fields are fixed at
// creation.
type Particle struct {
	Theta      float64 `json:"theta"`
	Offset     float64 `json:"offset"`
	Y          float64 `json:"y"`
	Scale      float64 `json:"scale"`
	DriftSpeed float64 `json:"drift_speed"`
	DriftPhase float64 `json:"drift_phase"`

	// Position is in world space after spin, tilt, scale and height.
	Position geom.Vec3 `json:"position"`
	Hue      float64   `json:"hue"`
	Falling  bool      `json:"falling"`

	fallSpeed float64
}

// Inputs are the signals read each frame. Expressions is nil while no face is
// tracked, which freezes shape and hue and stops new falls.
type Inputs struct {
	PointingDirection int
	Density           float64
	HandHeight        float64
	HandSpan          float64
	HandTilt          float64
	Expressions       *face.Expressions
}

// Field is the shared transform and discrete state of the ring.
type Field struct {
	Velocity float64 `json:"velocity"`
	Rotation float64 `json:"rotation"`
	OffsetY  float64 `json:"offset_y"`
	Tilt     float64 `json:"tilt"`
	Scale    float64 `json:"scale"`
	Shape    Shape   `json:"shape"`
	Hue      float64 `json:"hue"`
	Falling  int     `json:"falling"`
	Elapsed  float64 `json:"elapsed"`
}

// Animator integrates the particle ring. It is driven by a single goroutine
// and is not safe for concurrent use.
type Animator struct {
	config    Config
	rng       *rand.Rand
	particles []Particle
	field     Field
	cycler    *ShapeCycler
}

// NewAnimator creates an animator seeded from config.Seed.
func NewAnimator(config Config) *Animator {
	return NewAnimatorWithRand(config, rand.New(rand.NewSource(config.Seed)))
}

// NewAnimatorWithRand creates an animator drawing randomness from rng.
func NewAnimatorWithRand(config Config, rng *rand.Rand) *Animator {
	a := &Animator{
		config:    config,
		rng:       rng,
		particles: make([]Particle, config.Count),
		field: Field{
			Velocity: config.InitialVelocity,
			Scale:    1,
			Hue:      config.BaseHue,
		},
		cycler: NewShapeCycler(config.MouthOpenTrigger, config.MouthCycle, config.MouthLockReset),
	}

	for i := range a.particles {
		a.particles[i] = Particle{
			Theta:      rng.Float64() * 2 * math.Pi,
			Offset:     rng.Float64(),
			Y:          (rng.Float64() - 0.5) * 0.5,
			Scale:      rng.Float64()*0.1 + 0.05,
			DriftSpeed: 0.5 + rng.Float64(),
			DriftPhase: rng.Float64() * 2 * math.Pi,
			Hue:        config.BaseHue,
		}
	}
	a.place(0.5)
	return a
}

// Radius returns the ring radius of p at the given density and time. Denser
// fields sit on a tighter band at the base radius.
func (a *Animator) Radius(p *Particle, density, t float64) float64 {
	spread := (1 - geom.Clamp01(density)) * a.config.MaxSpread
	return a.config.BaseRadius + p.Offset*spread + a.config.DriftAmplitude*math.Sin(t*p.DriftSpeed+p.DriftPhase)
}

// Step advances the animation by dt.
func (a *Animator) Step(dt time.Duration, in Inputs) {
	secs := dt.Seconds()
	c := a.config
	f := &a.field
	f.Elapsed += secs

	if in.PointingDirection != 0 {
		f.Velocity += float64(in.PointingDirection) * c.Acceleration * secs
	}
	f.Velocity = geom.Clamp(f.Velocity, -c.MaxSpeed, c.MaxSpeed)
	f.Rotation = math.Mod(f.Rotation+f.Velocity*secs, 2*math.Pi)

	targetY := (0.5 - in.HandHeight) * c.HeightGain
	f.OffsetY = geom.Lerp(f.OffsetY, targetY, c.Smoothing)
	f.Tilt = geom.Lerp(f.Tilt, in.HandTilt, c.Smoothing)

	targetScale := 1.0
	if in.HandSpan > 0 {
		targetScale = 0.2 + 1.5*in.HandSpan
	}
	f.Scale = geom.Lerp(f.Scale, targetScale, c.Smoothing)

	smiling := false
	if e := in.Expressions; e != nil {
		smiling = e.Smile
		a.cycler.Update(e.MouthOpen, dt)
		f.Shape = a.cycler.Shape()
		a.drift(e.HeadTurn, secs)
	}

	a.place(in.Density)
	a.fall(smiling, secs)
}

// place recomputes the ring position of every particle that is not falling.
func (a *Animator) place(density float64) {
	f := &a.field
	sinR, cosR := math.Sincos(f.Rotation)
	sinT, cosT := math.Sincos(f.Tilt)

	for i := range a.particles {
		p := &a.particles[i]
		if p.Falling {
			continue
		}

		r := a.Radius(p, density, f.Elapsed)
		x := r * math.Cos(p.Theta) * f.Scale
		y := p.Y * f.Scale
		z := r * math.Sin(p.Theta) * f.Scale

		// Spin about the vertical axis, then tilt about the view axis.
		x, z = x*cosR+z*sinR, -x*sinR+z*cosR
		x, y = x*cosT-y*sinT, x*sinT+y*cosT

		p.Position = geom.Vec3{X: x, Y: y + f.OffsetY, Z: z}
	}
}

// fall integrates falling particles and starts new falls while smiling.
func (a *Animator) fall(smiling bool, secs float64) {
	c := a.config
	f := &a.field
	f.Falling = 0

	for i := range a.particles {
		p := &a.particles[i]
		if p.Falling {
			p.fallSpeed += c.FallGravity * secs
			p.Position.Y -= p.fallSpeed * secs
			if p.Position.Y-f.OffsetY < c.RespawnY {
				p.Falling = false
				p.fallSpeed = 0
				continue
			}
			f.Falling++
			continue
		}
		if smiling && a.rng.Float64() < c.FallChance {
			p.Falling = true
			p.fallSpeed = 0
			f.Falling++
		}
	}
}

// drift advances the shared hue while the head is turned past the minimum and
// recolours a random sample sized by the turn magnitude.
func (a *Animator) drift(turn, secs float64) {
	c := a.config
	if math.Abs(turn) <= c.HeadTurnMin || len(a.particles) == 0 {
		return
	}

	f := &a.field
	f.Hue = math.Mod(f.Hue+turn*c.HueRate*secs, 360)
	if f.Hue < 0 {
		f.Hue += 360
	}

	n := int(math.Ceil(math.Abs(turn) * c.RecolorFraction * float64(len(a.particles))))
	for k := 0; k < n; k++ {
		a.particles[a.rng.Intn(len(a.particles))].Hue = f.Hue
	}
}

// Field returns the shared ring state.
func (a *Animator) Field() Field {
	return a.field
}

// Particles returns the live particle slice. Callers must not retain it across
// Step calls; use AppendParticles for a copy.
func (a *Animator) Particles() []Particle {
	return a.particles
}

// AppendParticles appends a copy of every particle to dst.
func (a *Animator) AppendParticles(dst []Particle) []Particle {
	return append(dst, a.particles...)
}

// Config returns the animator configuration.
func (a *Animator) Config() Config {
	return a.config
}

// SetConfig replaces the tuning constants. Count and Seed only apply at
// construction and are kept from the current config.
func (a *Animator) SetConfig(config Config) {
	config.Count = a.config.Count
	config.Seed = a.config.Seed
	a.config = config
	a.cycler.Configure(config.MouthOpenTrigger, config.MouthCycle, config.MouthLockReset)
}
