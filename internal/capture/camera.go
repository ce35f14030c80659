// Package capture reads camera frames with GoCV and decides how often the
// tracker needs to look at them.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrNoFrame is returned when the device produced no usable frame.
	ErrNoFrame = errors.New("no frame available")
)

// Config describes the capture device.
type Config struct {
	DeviceID int `yaml:"device_id" json:"device_id" validate:"gte=0"`
	Width    int `yaml:"width" json:"width" validate:"gt=0"`
	Height   int `yaml:"height" json:"height" validate:"gt=0"`
}

// DefaultConfig captures 640x480 from the first camera.
func DefaultConfig() Config {
	return Config{Width: 640, Height: 480}
}

// Camera is a frame source. ReadFrame hands ownership of the Mat to the caller.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

type deviceCamera struct {
	config  Config
	capture *gocv.VideoCapture
	mu      sync.Mutex
	fps     int
}

// NewCamera creates a Camera for a local video device. It starts at the idle
// frame rate.
func NewCamera(config Config) Camera {
	return &deviceCamera{config: config, fps: DefaultIdleFPS}
}

func (c *deviceCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.config.DeviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.config.DeviceID, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.config.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.config.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(c.fps))

	c.capture = vc
	return nil
}

func (c *deviceCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

func (c *deviceCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("camera %d: %w", c.config.DeviceID, ErrNoFrame)
	}
	return &mat, nil
}

func (c *deviceCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps
	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *deviceCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *deviceCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}
