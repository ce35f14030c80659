package detector

import "gocv.io/x/gocv"

// Detector defines the interface for landmark source implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the landmarks tracked in it.
	// Returns an Observation with no hands if nothing is tracked.
	Detect(frame *gocv.Mat) (Observation, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for landmark tracking.
type Config struct {
	// MaxHands is the maximum number of hands to track (default: 2).
	MaxHands int `yaml:"max_hands" json:"max_hands" validate:"min=0,max=4"`

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence" validate:"gte=0,lte=1"`

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64 `yaml:"min_tracking_confidence" json:"min_tracking_confidence" validate:"gte=0,lte=1"`

	// Face enables the face mesh model.
	Face bool `yaml:"face" json:"face"`

	// FaceEvery runs the face mesh on one frame in N; hands run every frame.
	FaceEvery int `yaml:"face_every" json:"face_every" validate:"gte=1"`

	// Pose enables the body pose model.
	Pose bool `yaml:"pose" json:"pose"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		Face:            true,
		FaceEvery:       4,
		Pose:            false,
	}
}
