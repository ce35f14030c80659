// Package geom provides the distance, angle and ratio primitives shared by the
// gesture, face and particle packages.
package geom

import "math"

// Epsilon is the default floor for denominators and reference lengths.
const Epsilon = 1e-6

// Vec2 is a point or displacement in normalized 2D camera space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec3 is a point in normalized 3D camera space; Z is relative depth.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY drops the depth component.
func (v Vec3) XY() Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Len returns the Euclidean length of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Distance2D is the Euclidean distance between a and b, ignoring depth.
func Distance2D(a, b Vec3) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Distance3D is the Euclidean distance between a and b.
func Distance3D(a, b Vec3) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Bearing returns the direction of d in whole degrees, clockwise from screen-up,
// so that up is 0, right is 90, down is 180 and left is 270. The result is in [0, 360).
func Bearing(d Vec2) float64 {
	deg := math.Round(math.Atan2(d.Y, d.X)*180/math.Pi + 90)
	deg = math.Mod(deg, 360)
	switch {
	case deg < 0:
		deg += 360
	case deg == 0:
		// Rounding just left of up yields -0.
		deg = 0
	}
	return deg
}

// Ratio returns num/den with den floored at eps in magnitude.
func Ratio(num, den, eps float64) float64 {
	if math.Abs(den) < eps {
		if den < 0 {
			den = -eps
		} else {
			den = eps
		}
	}
	return num / den
}

// Clamp restricts v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if v < lo || math.IsNaN(v) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 restricts v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Lerp moves a toward b by factor t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
