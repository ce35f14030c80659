package particle

import "time"

// Shape is the glyph every particle is drawn with.
type Shape int

const (
	ShapeSphere Shape = iota
	ShapeCube
	ShapeTetrahedron
	numShapes
)

// String implements fmt.Stringer.
func (s Shape) String() string {
	switch s {
	case ShapeSphere:
		return "sphere"
	case ShapeCube:
		return "cube"
	case ShapeTetrahedron:
		return "tetrahedron"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Next returns the shape after s in the cycle.
func (s Shape) Next() Shape {
	return (s + 1) % numShapes
}

// ShapeCycler advances the shape after the mouth has been open for a
// continuous hold time. It then locks until the mouth has been closed for a
// continuous release time.
type ShapeCycler struct {
	trigger float64
	hold    time.Duration
	release time.Duration

	shape     Shape
	locked    bool
	openFor   time.Duration
	closedFor time.Duration
}

// NewShapeCycler creates a cycler starting at ShapeSphere.
func NewShapeCycler(trigger float64, hold, release time.Duration) *ShapeCycler {
	return &ShapeCycler{trigger: trigger, hold: hold, release: release}
}

// Update feeds one frame of mouth openness and reports whether the shape changed.
func (c *ShapeCycler) Update(mouthOpen float64, dt time.Duration) bool {
	if mouthOpen > c.trigger {
		c.openFor += dt
		c.closedFor = 0
		if !c.locked && c.openFor >= c.hold {
			c.shape = c.shape.Next()
			c.locked = true
			return true
		}
		return false
	}

	c.openFor = 0
	c.closedFor += dt
	if c.locked && c.closedFor >= c.release {
		c.locked = false
	}
	return false
}

// Shape returns the current shape.
func (c *ShapeCycler) Shape() Shape {
	return c.shape
}

// Locked reports whether the cycler is waiting for the mouth to close.
func (c *ShapeCycler) Locked() bool {
	return c.locked
}

// Configure changes the timing without resetting the current shape or lock.
func (c *ShapeCycler) Configure(trigger float64, hold, release time.Duration) {
	c.trigger = trigger
	c.hold = hold
	c.release = release
}
