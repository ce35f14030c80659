package render

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/ayusman/mudra/internal/particle"
)

// SceneFunc returns the scene to draw for the current frame.
type SceneFunc func() Scene

// Viewer is an ebiten game that draws whatever the pipeline last produced.
//
// Keys:
//
//	Space  pause or resume gesture processing
//	H      toggle the overlay text
//	Escape close the window
type Viewer struct {
	width, height int
	scene         SceneFunc
	toggle        func() bool
	overlay       bool
	frame         Frame
	done          <-chan struct{}
}

// NewViewer creates a viewer. toggle flips processing and returns the new
// enabled state; it may be nil.
func NewViewer(width, height int, scene SceneFunc, toggle func() bool) *Viewer {
	return &Viewer{
		width:   width,
		height:  height,
		scene:   scene,
		toggle:  toggle,
		overlay: true,
	}
}

// CloseOn closes the window once done is closed.
func (v *Viewer) CloseOn(done <-chan struct{}) {
	v.done = done
}

// Update implements ebiten.Game.
func (v *Viewer) Update() error {
	select {
	case <-v.done:
		return ebiten.Termination
	default:
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		v.overlay = !v.overlay
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) && v.toggle != nil {
		v.toggle()
	}
	v.frame = Layout(v.scene(), v.width, v.height)
	return nil
}

// Draw implements ebiten.Game.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(Background)

	for _, s := range v.frame.Sprites {
		drawSprite(screen, s)
	}

	for _, b := range v.frame.Boxes {
		vector.StrokeRect(screen, float32(b.X), float32(b.Y), float32(b.W), float32(b.H), 2, b.Color, true)
		if b.Progress > 0 {
			vector.DrawFilledRect(screen, float32(b.X), float32(b.Y+b.H+4), float32(b.W*b.Progress), 6, b.Color, true)
		}
		ebitenutil.DebugPrintAt(screen, b.Label, int(b.X)+4, int(b.Y)+4)
		if b.Near {
			vector.StrokeCircle(screen, float32(b.GhostX), float32(b.GhostY), 6, 1, b.Color, true)
		}
	}

	for _, m := range v.frame.Markers {
		vector.StrokeCircle(screen, float32(m.X), float32(m.Y), 10, 2, handColor, true)
		ebitenutil.DebugPrintAt(screen, m.Label, int(m.X)+14, int(m.Y)-6)
	}

	if v.overlay {
		for i, line := range v.frame.Lines {
			ebitenutil.DebugPrintAt(screen, line, 10, 10+16*i)
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%.0f fps", ebiten.ActualFPS()), 10, v.height-20)
	}
}

// Layout implements ebiten.Game.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.width, v.height
}

// Run opens the window and blocks until it is closed.
func (v *Viewer) Run(title string) error {
	ebiten.SetWindowSize(v.width, v.height)
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(v); err != nil {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}

func drawSprite(screen *ebiten.Image, s Sprite) {
	x, y, r := float32(s.X), float32(s.Y), float32(s.Radius)
	switch s.Shape {
	case particle.ShapeCube:
		vector.DrawFilledRect(screen, x-r, y-r, 2*r, 2*r, s.Color, true)
	case particle.ShapeTetrahedron:
		var pts [3][2]float32
		for i := range pts {
			a := -math.Pi/2 + float64(i)*2*math.Pi/3
			pts[i] = [2]float32{x + r*float32(math.Cos(a)), y + r*float32(math.Sin(a))}
		}
		for i := range pts {
			j := (i + 1) % 3
			vector.StrokeLine(screen, pts[i][0], pts[i][1], pts[j][0], pts[j][1], max(r/2, 1), s.Color, true)
		}
	default:
		vector.DrawFilledCircle(screen, x, y, r, s.Color, true)
	}
}
