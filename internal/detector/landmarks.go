// Package detector defines the landmark observations produced by the tracker and
// the sources that produce them.
package detector

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/geom"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Face mesh indices into the 468-point MediaPipe face mesh.
const (
	FaceNoseTip        = 1
	FaceLeftCheek      = 234
	FaceRightCheek     = 454
	FaceLeftEyeOuter   = 33
	FaceLeftEyeInner   = 133
	FaceLeftEyeTop     = 159
	FaceLeftEyeBottom  = 145
	FaceRightEyeInner  = 362
	FaceRightEyeOuter  = 263
	FaceRightEyeTop    = 386
	FaceRightEyeBottom = 374
	FaceMouthLeft      = 61
	FaceMouthRight     = 291
	FaceMouthTop       = 13
	FaceMouthBottom    = 14
)

// NumFaceMeshLandmarks is the size of the unrefined face mesh.
const NumFaceMeshLandmarks = 468

// maxFaceIndex is the highest mesh index read by the expression extractor.
const maxFaceIndex = FaceRightCheek

// ErrLandmarkCount is returned when a landmark array does not have the size the
// consumer indexes into.
var ErrLandmarkCount = errors.New("unexpected landmark count")

// Point3D is a landmark in normalized [0,1] camera space with relative depth.
type Point3D = geom.Vec3

// HandLandmarks represents the 21 hand landmarks of one tracked hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness,omitempty"` // "Left" or "Right"
	Score      float64               `json:"score,omitempty"`
}

// NewHandLandmarks builds a hand from a point slice, failing when the slice
// does not hold exactly NumLandmarks points.
func NewHandLandmarks(points []Point3D) (HandLandmarks, error) {
	var h HandLandmarks
	if len(points) != NumLandmarks {
		return h, fmt.Errorf("hand has %d points, want %d: %w", len(points), NumLandmarks, ErrLandmarkCount)
	}
	copy(h.Points[:], points)
	return h, nil
}

// Wrist returns the wrist landmark.
func (h HandLandmarks) Wrist() Point3D {
	return h.Points[Wrist]
}

// FaceLandmarks is a single face mesh.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
}

// NewFaceLandmarks validates that every mesh index used for expressions exists.
func NewFaceLandmarks(points []Point3D) (*FaceLandmarks, error) {
	if len(points) <= maxFaceIndex {
		return nil, fmt.Errorf("face mesh has %d points, need at least %d: %w", len(points), maxFaceIndex+1, ErrLandmarkCount)
	}
	return &FaceLandmarks{Points: points}, nil
}

// At returns the mesh point at index i.
func (f *FaceLandmarks) At(i int) Point3D {
	return f.Points[i]
}

// Observation is everything the tracker reports for one frame. Face and Pose
// are nil when the entity was not tracked or not evaluated this frame.
// FaceEvaluated tells the two apart for the face: a nil Face with
// FaceEvaluated set means the face model ran and found nothing.
type Observation struct {
	Hands         []HandLandmarks `json:"hands"`
	Face          *FaceLandmarks  `json:"face,omitempty"`
	FaceEvaluated bool            `json:"face_evaluated"`
	Pose          []Point3D       `json:"pose,omitempty"`
	TimestampMs   int64           `json:"timestamp_ms,omitempty"`
}

// FaceReported reports whether o carries a face result, either a mesh or an
// evaluated frame without one.
func (o Observation) FaceReported() bool {
	return o.FaceEvaluated || o.Face != nil
}
