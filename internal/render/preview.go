package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/particle"
)

// Paint draws f into a new BGR image. The caller closes the result.
func Paint(f Frame) gocv.Mat {
	img := gocv.NewMatWithSize(f.Height, f.Width, gocv.MatTypeCV8UC3)
	img.SetTo(scalar(Background))

	for _, s := range f.Sprites {
		paintSprite(&img, s)
	}

	for _, b := range f.Boxes {
		r := image.Rect(round(b.X), round(b.Y), round(b.X+b.W), round(b.Y+b.H))
		gocv.Rectangle(&img, r, bgr(b.Color), 2)
		if b.Progress > 0 {
			bar := image.Rect(r.Min.X, r.Max.Y+4, r.Min.X+round(b.W*b.Progress), r.Max.Y+10)
			gocv.Rectangle(&img, bar, bgr(b.Color), -1)
		}
		gocv.PutText(&img, b.Label, image.Pt(r.Min.X+4, r.Min.Y+18), gocv.FontHersheySimplex, 0.5, bgr(b.Color), 1)
		if b.Near {
			gocv.Circle(&img, image.Pt(round(b.GhostX), round(b.GhostY)), 6, bgr(b.Color), 1)
		}
	}

	for _, m := range f.Markers {
		p := image.Pt(round(m.X), round(m.Y))
		gocv.Circle(&img, p, 10, bgr(handColor), 2)
		gocv.PutText(&img, m.Label, p.Add(image.Pt(14, 4)), gocv.FontHersheySimplex, 0.45, bgr(handColor), 1)
	}

	for i, line := range f.Lines {
		gocv.PutText(&img, line, image.Pt(10, 20+18*i), gocv.FontHersheySimplex, 0.5, bgr(textColor), 1)
	}
	return img
}

// EncodeJPEG paints f and encodes it as JPEG.
func EncodeJPEG(f Frame) ([]byte, error) {
	img := Paint(f)
	defer img.Close()

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func paintSprite(img *gocv.Mat, s Sprite) {
	c := bgr(s.Color)
	switch s.Shape {
	case particle.ShapeCube:
		r := round(s.Radius)
		x, y := round(s.X), round(s.Y)
		gocv.Rectangle(img, image.Rect(x-r, y-r, x+r, y+r), c, -1)
	case particle.ShapeTetrahedron:
		pts := gocv.NewPointsVectorFromPoints([][]image.Point{triangle(s.X, s.Y, s.Radius)})
		defer pts.Close()
		gocv.FillPoly(img, pts, c)
	default:
		gocv.Circle(img, image.Pt(round(s.X), round(s.Y)), max(round(s.Radius), 1), c, -1)
	}
}

// triangle returns an upward equilateral triangle inscribed in a circle of radius r.
func triangle(x, y, r float64) []image.Point {
	pts := make([]image.Point, 3)
	for i := range pts {
		a := -math.Pi/2 + float64(i)*2*math.Pi/3
		pts[i] = image.Pt(round(x+r*math.Cos(a)), round(y+r*math.Sin(a)))
	}
	return pts
}

// bgr swaps red and blue for OpenCV's channel order.
func bgr(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.B, G: c.G, B: c.R, A: c.A}
}

func scalar(c color.RGBA) gocv.Scalar {
	return gocv.NewScalar(float64(c.B), float64(c.G), float64(c.R), 0)
}

func round(f float64) int {
	return int(math.Round(f))
}
