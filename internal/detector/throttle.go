package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// FaceScheduler is implemented by sources whose face cadence can change at runtime.
type FaceScheduler interface {
	SetFaceEvery(every int)
}

// cadence selects one call in every N. Callers serialize access.
type cadence struct {
	every int64
	calls int64
}

func (c *cadence) set(every int) {
	c.every = int64(max(every, 1))
	c.calls = 0
}

func (c *cadence) due() bool {
	every := max(c.every, 1)
	due := c.calls%every == 0
	c.calls++
	return due
}

// FaceThrottle wraps a Detector so the face is reported on one call in every N.
// Other calls keep the hands and come back with FaceEvaluated unset.
type FaceThrottle struct {
	Detector

	mu      sync.Mutex
	cadence cadence
}

// NewFaceThrottle wraps d, reporting the face on the first call and every
// every-th call after it.
func NewFaceThrottle(d Detector, every int) *FaceThrottle {
	t := &FaceThrottle{Detector: d}
	t.cadence.set(every)
	return t
}

// SetFaceEvery changes N and restarts the count.
func (t *FaceThrottle) SetFaceEvery(every int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cadence.set(every)
}

// Detect runs the wrapped detector and drops the face on skipped calls.
func (t *FaceThrottle) Detect(frame *gocv.Mat) (Observation, error) {
	obs, err := t.Detector.Detect(frame)
	if err != nil {
		return obs, err
	}

	t.mu.Lock()
	due := t.cadence.due()
	t.mu.Unlock()

	if !due {
		obs.Face = nil
		obs.FaceEvaluated = false
	}
	return obs, nil
}
