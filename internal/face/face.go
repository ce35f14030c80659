// Package face derives expression signals from a face mesh.
package face

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geom"
)

// DefaultSmileThreshold is the mouth to face width ratio above which a face
// counts as smiling.
const DefaultSmileThreshold = 0.40

// Gains applied to the raw aspect ratios before clamping.
const (
	eyeGain   = 3.0
	mouthGain = 2.0
)

// Expressions are the per-frame face signals.
type Expressions struct {
	Smile        bool    `json:"smile"`
	LeftEyeOpen  float64 `json:"left_eye_open"`
	RightEyeOpen float64 `json:"right_eye_open"`
	MouthOpen    float64 `json:"mouth_open"`
	// HeadTurn is in [-1, 1]; positive when the nose is closer to the right cheek.
	HeadTurn float64 `json:"head_turn"`
}

// Config tunes the extractor.
type Config struct {
	SmileThreshold float64 `yaml:"smile_threshold" json:"smile_threshold" validate:"gt=0,lt=1"`
	// Epsilon floors the width denominators.
	Epsilon float64 `yaml:"epsilon" json:"epsilon" validate:"gt=0"`
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() Config {
	return Config{
		SmileThreshold: DefaultSmileThreshold,
		Epsilon:        geom.Epsilon,
	}
}

// Extractor computes Expressions. It is stateless and safe for concurrent use.
type Extractor struct {
	config Config
}

// NewExtractor creates an Extractor.
func NewExtractor(config Config) *Extractor {
	if config.Epsilon <= 0 {
		config.Epsilon = geom.Epsilon
	}
	return &Extractor{config: config}
}

// Extract returns nil when there is no face.
func (e *Extractor) Extract(f *detector.FaceLandmarks) *Expressions {
	if f == nil || len(f.Points) <= detector.FaceRightCheek {
		return nil
	}

	return &Expressions{
		Smile:        e.smileRatio(f) > e.config.SmileThreshold,
		LeftEyeOpen:  e.eyeOpenness(f, detector.FaceLeftEyeOuter, detector.FaceLeftEyeInner, detector.FaceLeftEyeTop, detector.FaceLeftEyeBottom),
		RightEyeOpen: e.eyeOpenness(f, detector.FaceRightEyeInner, detector.FaceRightEyeOuter, detector.FaceRightEyeTop, detector.FaceRightEyeBottom),
		MouthOpen:    e.mouthOpen(f),
		HeadTurn:     headTurn(f),
	}
}

// SmileRatio exposes the mouth to face width ratio used for smile detection.
func (e *Extractor) SmileRatio(f *detector.FaceLandmarks) float64 {
	if f == nil || len(f.Points) <= detector.FaceRightCheek {
		return 0
	}
	return e.smileRatio(f)
}

func (e *Extractor) smileRatio(f *detector.FaceLandmarks) float64 {
	mouth := geom.Distance3D(f.At(detector.FaceMouthLeft), f.At(detector.FaceMouthRight))
	width := geom.Distance3D(f.At(detector.FaceLeftCheek), f.At(detector.FaceRightCheek))
	return geom.Ratio(mouth, width, e.config.Epsilon)
}

func (e *Extractor) eyeOpenness(f *detector.FaceLandmarks, a, b, top, bottom int) float64 {
	h := geom.Distance3D(f.At(a), f.At(b))
	v := geom.Distance3D(f.At(top), f.At(bottom))
	return geom.Clamp01(geom.Ratio(v, h, e.config.Epsilon) * eyeGain)
}

func (e *Extractor) mouthOpen(f *detector.FaceLandmarks) float64 {
	h := geom.Distance3D(f.At(detector.FaceMouthLeft), f.At(detector.FaceMouthRight))
	v := geom.Distance3D(f.At(detector.FaceMouthTop), f.At(detector.FaceMouthBottom))
	return geom.Clamp01(geom.Ratio(v, h, e.config.Epsilon) * mouthGain)
}

func headTurn(f *detector.FaceLandmarks) float64 {
	nose := f.At(detector.FaceNoseTip)
	left := math.Abs(nose.X - f.At(detector.FaceLeftCheek).X)
	right := math.Abs(nose.X - f.At(detector.FaceRightCheek).X)

	sum := left + right
	if sum == 0 {
		return 0
	}
	return (left - right) / sum
}
