package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the observations returned per frame.
type MockDetector struct {
	mu  sync.Mutex
	obs Observation
	err error
}

// NewMockDetector creates a new MockDetector instance. Its observations
// report the face as evaluated.
func NewMockDetector() *MockDetector {
	return &MockDetector{obs: Observation{FaceEvaluated: true}}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs.Hands = hands
}

// SetFace sets the face mesh that will be returned by Detect; nil clears it.
func (m *MockDetector) SetFace(face *FaceLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs.Face = face
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured observation or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (Observation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Observation{}, m.err
	}
	return m.obs, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}
