package detector

import (
	"encoding/json"
	"fmt"
)

// wireObservation is the JSON line emitted by the tracker service and stored in
// recorded sessions.
type wireObservation struct {
	Hands       []wireHand   `json:"hands"`
	Faces       []wirePoints `json:"faces,omitempty"`
	Pose        *wirePoints  `json:"pose,omitempty"`
	TimestampMs int64        `json:"timestamp_ms,omitempty"`

	// FaceEvaluated is false on frames where the face model was skipped.
	// Lines without it come from a tracker that evaluates every frame.
	FaceEvaluated *bool `json:"face_evaluated,omitempty"`
}

type wireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

type wirePoints struct {
	Points []Point3D `json:"points"`
}

// DecodeObservation parses one JSON observation line. Hands with the wrong
// point count and faces missing expression indices are rejected.
func DecodeObservation(line []byte) (Observation, error) {
	var w wireObservation
	if err := json.Unmarshal(line, &w); err != nil {
		return Observation{}, fmt.Errorf("parse observation: %w", err)
	}
	return w.toObservation()
}

// EncodeObservation renders obs in the line format read by DecodeObservation.
func EncodeObservation(obs Observation) ([]byte, error) {
	w := wireObservation{
		Hands:       make([]wireHand, len(obs.Hands)),
		TimestampMs: obs.TimestampMs,
	}
	for i, h := range obs.Hands {
		w.Hands[i] = wireHand{
			Points:     h.Points[:],
			Handedness: h.Handedness,
			Score:      h.Score,
		}
	}
	if obs.Face != nil {
		w.Faces = []wirePoints{{Points: obs.Face.Points}}
	}
	if !obs.FaceReported() {
		skipped := false
		w.FaceEvaluated = &skipped
	}
	if obs.Pose != nil {
		w.Pose = &wirePoints{Points: obs.Pose}
	}
	return json.Marshal(w)
}

func (w wireObservation) toObservation() (Observation, error) {
	obs := Observation{
		Hands:         make([]HandLandmarks, 0, len(w.Hands)),
		FaceEvaluated: w.FaceEvaluated == nil || *w.FaceEvaluated,
		TimestampMs:   w.TimestampMs,
	}

	for i, wh := range w.Hands {
		h, err := NewHandLandmarks(wh.Points)
		if err != nil {
			return Observation{}, fmt.Errorf("hand %d: %w", i, err)
		}
		h.Handedness = wh.Handedness
		h.Score = wh.Score
		obs.Hands = append(obs.Hands, h)
	}

	// Only the first face is classified.
	if len(w.Faces) > 0 {
		face, err := NewFaceLandmarks(w.Faces[0].Points)
		if err != nil {
			return Observation{}, fmt.Errorf("face: %w", err)
		}
		obs.Face = face
		obs.FaceEvaluated = true
	}

	if w.Pose != nil {
		obs.Pose = w.Pose.Points
	}

	return obs, nil
}
