package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Frame rate defaults.
const (
	DefaultIdleFPS     = 5
	DefaultActiveFPS   = 30
	DefaultIdleTimeout = 2 * time.Second
)

// MotionConfig tunes frame differencing.
type MotionConfig struct {
	// Threshold is the percentage of changed pixels that counts as motion.
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"gt=0,lte=100"`
	// BlurSize is the odd Gaussian kernel size applied before differencing.
	BlurSize int `yaml:"blur_size" json:"blur_size" validate:"gt=0"`
	// PixelDelta is the grey level difference above which a pixel has changed.
	PixelDelta float32 `yaml:"pixel_delta" json:"pixel_delta" validate:"gt=0,lt=255"`
}

// DefaultMotionConfig returns a 1% threshold over a 21px blur.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{Threshold: 1.0, BlurSize: 21, PixelDelta: 25}
}

// MotionDetector compares each frame with the previous one.
type MotionDetector struct {
	mu     sync.Mutex
	config MotionConfig
	prev   gocv.Mat
	primed bool
}

// NewMotionDetector creates a MotionDetector. An even blur size is rounded up.
func NewMotionDetector(config MotionConfig) *MotionDetector {
	if config.BlurSize%2 == 0 {
		config.BlurSize++
	}
	return &MotionDetector{config: config, prev: gocv.NewMat()}
}

// Detect reports whether frame differs from the previous frame and the
// percentage of changed pixels. The first frame only primes the detector.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	k := m.config.BlurSize
	gocv.GaussianBlur(gray, &blurred, image.Point{X: k, Y: k}, 0, 0, gocv.BorderDefault)

	if !m.primed || m.prev.Rows() != blurred.Rows() || m.prev.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.prev)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)
	gocv.Threshold(diff, &diff, m.config.PixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	blurred.CopyTo(&m.prev)

	return changed > m.config.Threshold, changed
}

// SetThreshold changes the motion threshold. Non-positive values are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config.Threshold = threshold
}

// Reset forgets the previous frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

// Close releases the stored frame. The detector re-primes if used again.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *MotionDetector) reset() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.primed = false
}

// Mode is the capture cadence.
type Mode string

const (
	ModeIdle   Mode = "idle"
	ModeActive Mode = "active"
)

// GateConfig sets the two frame rates and how long the scene must be still
// before dropping back to idle.
type GateConfig struct {
	IdleFPS     int           `yaml:"idle_fps" json:"idle_fps" validate:"gt=0"`
	ActiveFPS   int           `yaml:"active_fps" json:"active_fps" validate:"gtefield=IdleFPS"`
	IdleTimeout time.Duration `yaml:"idle_timeout" json:"idle_timeout" validate:"gt=0"`
}

// DefaultGateConfig returns the default cadence.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		IdleFPS:     DefaultIdleFPS,
		ActiveFPS:   DefaultActiveFPS,
		IdleTimeout: DefaultIdleTimeout,
	}
}

// Gate switches to the active frame rate on motion and back to idle after a
// quiet period.
type Gate struct {
	config     GateConfig
	mode       Mode
	lastMotion time.Time
}

// NewGate creates a Gate in idle mode.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config, mode: ModeIdle}
}

// Observe records one frame's motion result and reports whether the mode
// changed.
func (g *Gate) Observe(motion bool, now time.Time) bool {
	if motion {
		g.lastMotion = now
		if g.mode != ModeActive {
			g.mode = ModeActive
			return true
		}
		return false
	}

	if g.mode == ModeActive && now.Sub(g.lastMotion) > g.config.IdleTimeout {
		g.mode = ModeIdle
		return true
	}
	return false
}

// Mode returns the current mode.
func (g *Gate) Mode() Mode {
	return g.mode
}

// FPS returns the frame rate for the current mode.
func (g *Gate) FPS() int {
	if g.mode == ModeActive {
		return g.config.ActiveFPS
	}
	return g.config.IdleFPS
}

// Interval returns the frame interval for the current mode.
func (g *Gate) Interval() time.Duration {
	return time.Second / time.Duration(g.FPS())
}
