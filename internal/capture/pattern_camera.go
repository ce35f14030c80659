package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// PatternCamera synthesizes solid grey frames from a list of brightness
// levels. A change of level between frames reads as motion. It stands in for
// a device when landmarks come from a recording.
type PatternCamera struct {
	width, height int
	levels        []uint8
	loop          bool

	mu    sync.Mutex
	open  bool
	index int
	fps   int
}

// NewPatternCamera creates a PatternCamera. With loop set the levels repeat.
func NewPatternCamera(width, height int, levels []uint8, loop bool) *PatternCamera {
	return &PatternCamera{
		width:  width,
		height: height,
		levels: levels,
		loop:   loop,
		fps:    DefaultIdleFPS,
	}
}

func (c *PatternCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.index = 0
	return nil
}

func (c *PatternCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *PatternCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return nil, ErrCameraNotOpen
	}
	if c.index >= len(c.levels) {
		if !c.loop || len(c.levels) == 0 {
			return nil, fmt.Errorf("pattern exhausted after %d frames: %w", c.index, ErrNoFrame)
		}
		c.index = 0
	}

	v := float64(c.levels[c.index])
	c.index++

	mat := gocv.NewMatWithSize(c.height, c.width, gocv.MatTypeCV8UC3)
	mat.SetTo(gocv.NewScalar(v, v, v, 0))
	return &mat, nil
}

func (c *PatternCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *PatternCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *PatternCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}
