package detector

import "math"

// HandPose describes a synthetic hand by fingertip distances from the wrist,
// measured in units of Scale (the wrist to middle MCP length).
type HandPose struct {
	Wrist  Point3D
	Scale  float64
	Index  float64
	Middle float64
	Ring   float64
	Pinky  float64
	// IndexSide points the index finger left (-1) or right (+1) of the wrist;
	// 0 points it straight up.
	IndexSide float64
}

// SyntheticHand builds a 21-point hand matching p exactly.
func SyntheticHand(p HandPose) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	w := p.Wrist
	s := p.Scale

	h.Points[Wrist] = w

	h.Points[ThumbCMC] = Point3D{X: w.X + 0.3*s, Y: w.Y - 0.2*s, Z: w.Z}
	h.Points[ThumbMCP] = Point3D{X: w.X + 0.6*s, Y: w.Y - 0.4*s, Z: w.Z}
	h.Points[ThumbIP] = Point3D{X: w.X + 0.8*s, Y: w.Y - 0.6*s, Z: w.Z}
	h.Points[ThumbTip] = Point3D{X: w.X + 0.9*s, Y: w.Y - 0.8*s, Z: w.Z}

	indexDir := [2]float64{0, -1}
	if p.IndexSide != 0 {
		indexDir = [2]float64{math.Copysign(1, p.IndexSide), 0}
	}
	finger(&h, IndexMCP, w, s, [2]float64{0.25, -0.95}, indexDir, p.Index)

	finger(&h, MiddleMCP, w, s, [2]float64{0, -1}, upward(0), p.Middle)
	finger(&h, RingMCP, w, s, [2]float64{-0.25, -0.95}, upward(-0.15), p.Ring)
	finger(&h, PinkyMCP, w, s, [2]float64{-0.5, -0.85}, upward(-0.3), p.Pinky)

	return h
}

// upward returns a unit vector tilted a radians from screen-up.
func upward(a float64) [2]float64 {
	return [2]float64{math.Sin(a), -math.Cos(a)}
}

// finger places the MCP..tip chain starting at index mcp. The tip lies exactly
// dist*s from the wrist along dir; PIP and DIP are interpolated.
func finger(h *HandLandmarks, mcp int, w Point3D, s float64, knuckle, dir [2]float64, dist float64) {
	base := Point3D{X: w.X + knuckle[0]*s, Y: w.Y + knuckle[1]*s, Z: w.Z}
	if mcp == MiddleMCP {
		base = Point3D{X: w.X, Y: w.Y - s, Z: w.Z}
	}
	tip := Point3D{X: w.X + dir[0]*dist*s, Y: w.Y + dir[1]*dist*s, Z: w.Z}

	h.Points[mcp] = base
	for i, t := range []float64{1.0 / 3, 2.0 / 3} {
		h.Points[mcp+1+i] = Point3D{
			X: base.X + (tip.X-base.X)*t,
			Y: base.Y + (tip.Y-base.Y)*t,
			Z: w.Z,
		}
	}
	h.Points[mcp+3] = tip
}

const fixtureScale = 0.1

// FistLandmarks returns a hand with every fingertip curled to 0.3 scale.
func FistLandmarks() HandLandmarks {
	return SyntheticHand(HandPose{
		Wrist: Point3D{X: 0.5, Y: 0.7}, Scale: fixtureScale,
		Index: 0.3, Middle: 0.3, Ring: 0.3, Pinky: 0.3,
	})
}

// PointingLandmarks returns a hand with only the index finger extended to
// 2x scale, toward side (-1 left, +1 right).
func PointingLandmarks(side float64) HandLandmarks {
	return SyntheticHand(HandPose{
		Wrist: Point3D{X: 0.5, Y: 0.7}, Scale: fixtureScale,
		Index: 2, Middle: 0.3, Ring: 0.3, Pinky: 0.3,
		IndexSide: side,
	})
}

// OpenPalmLandmarks returns a hand with every fingertip at 2x scale.
func OpenPalmLandmarks() HandLandmarks {
	return SyntheticHand(HandPose{
		Wrist: Point3D{X: 0.5, Y: 0.7}, Scale: fixtureScale,
		Index: 2, Middle: 2, Ring: 2, Pinky: 2,
	})
}

// PeaceLandmarks returns a half-curled peace sign that fits no gesture rule.
func PeaceLandmarks() HandLandmarks {
	return SyntheticHand(HandPose{
		Wrist: Point3D{X: 0.5, Y: 0.7}, Scale: fixtureScale,
		Index: 2, Middle: 2, Ring: 1.2, Pinky: 1.2,
	})
}

// At returns a copy of h translated so that its wrist sits at (x, y).
func (h HandLandmarks) At(x, y float64) HandLandmarks {
	dx := x - h.Points[Wrist].X
	dy := y - h.Points[Wrist].Y
	for i := range h.Points {
		h.Points[i].X += dx
		h.Points[i].Y += dy
	}
	return h
}

// FacePose describes a synthetic face by the expression values it should yield.
type FacePose struct {
	Center Point3D
	// Width is the cheek-to-cheek distance.
	Width float64
	// MouthRatio is mouth width over face width.
	MouthRatio float64
	MouthOpen  float64
	EyeOpen    float64
	// Turn is the head-turn value in [-1, 1].
	Turn float64
}

// NeutralFacePose is a relaxed, frontal face with open eyes and closed mouth.
func NeutralFacePose() FacePose {
	return FacePose{
		Center:     Point3D{X: 0.5, Y: 0.4},
		Width:      0.3,
		MouthRatio: 0.3,
		MouthOpen:  0,
		EyeOpen:    0.9,
	}
}

// SyntheticFace builds a face mesh whose expression landmarks realize p.
// Landmarks not used by expressions sit at the face center.
func SyntheticFace(p FacePose) *FaceLandmarks {
	pts := make([]Point3D, NumFaceMeshLandmarks)
	c := p.Center
	for i := range pts {
		pts[i] = c
	}

	half := p.Width / 2
	pts[FaceNoseTip] = c
	pts[FaceLeftCheek] = Point3D{X: c.X - half*(1+p.Turn), Y: c.Y, Z: c.Z}
	pts[FaceRightCheek] = Point3D{X: c.X + half*(1-p.Turn), Y: c.Y, Z: c.Z}

	mouthW := p.MouthRatio * p.Width
	mouthH := p.MouthOpen / 2 * mouthW
	my := c.Y + 0.3*p.Width
	pts[FaceMouthLeft] = Point3D{X: c.X - mouthW/2, Y: my, Z: c.Z}
	pts[FaceMouthRight] = Point3D{X: c.X + mouthW/2, Y: my, Z: c.Z}
	pts[FaceMouthTop] = Point3D{X: c.X, Y: my - mouthH/2, Z: c.Z}
	pts[FaceMouthBottom] = Point3D{X: c.X, Y: my + mouthH/2, Z: c.Z}

	eyeW := 0.15 * p.Width
	eyeH := p.EyeOpen / 3 * eyeW
	ey := c.Y - 0.2*p.Width
	for _, eye := range []struct {
		cx                        float64
		outer, inner, top, bottom int
	}{
		{c.X - 0.25*p.Width, FaceLeftEyeOuter, FaceLeftEyeInner, FaceLeftEyeTop, FaceLeftEyeBottom},
		{c.X + 0.25*p.Width, FaceRightEyeOuter, FaceRightEyeInner, FaceRightEyeTop, FaceRightEyeBottom},
	} {
		pts[eye.outer] = Point3D{X: eye.cx - eyeW/2, Y: ey, Z: c.Z}
		pts[eye.inner] = Point3D{X: eye.cx + eyeW/2, Y: ey, Z: c.Z}
		pts[eye.top] = Point3D{X: eye.cx, Y: ey - eyeH/2, Z: c.Z}
		pts[eye.bottom] = Point3D{X: eye.cx, Y: ey + eyeH/2, Z: c.Z}
	}

	return &FaceLandmarks{Points: pts}
}
