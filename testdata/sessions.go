// Package testdata builds scripted landmark sessions and writes them in the
// replay format read by detector.ReplayDetector.
package testdata

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ayusman/mudra/internal/detector"
)

// Step repeats one observation for a number of frames.
type Step struct {
	Obs    detector.Observation
	Frames int
}

// Session is a sequence of steps.
type Session []Step

// Hold repeats obs for frames frames.
func Hold(obs detector.Observation, frames int) Session {
	return Session{{Obs: obs, Frames: frames}}
}

// Empty is frames frames with nothing tracked.
func Empty(frames int) Session {
	return Hold(detector.Observation{FaceEvaluated: true}, frames)
}

// Palm holds an open palm with its wrist at (x, y) in camera space.
func Palm(x, y float64, frames int) Session {
	return hands(frames, detector.OpenPalmLandmarks().At(x, y))
}

// Fist holds a closed fist.
func Fist(frames int) Session {
	return hands(frames, detector.FistLandmarks())
}

// Point holds a pointing hand; side is -1 for left and +1 for right.
func Point(side float64, frames int) Session {
	return hands(frames, detector.PointingLandmarks(side))
}

// Smile holds a smiling face with no hands.
func Smile(frames int) Session {
	pose := detector.NeutralFacePose()
	pose.MouthRatio = 0.5
	return face(frames, pose)
}

// OpenMouth holds a face with the mouth wide open.
func OpenMouth(frames int) Session {
	pose := detector.NeutralFacePose()
	pose.MouthOpen = 0.9
	return face(frames, pose)
}

// Staggered repeats obs for frames frames, reporting its face only on frames
// where i%every == phase. Other frames carry the hands alone, unevaluated.
func Staggered(obs detector.Observation, frames, every, phase int) Session {
	var out Session
	skipped := detector.Observation{Hands: obs.Hands}
	for i := 0; i < frames; i++ {
		if i%every == phase {
			out = append(out, Hold(obs, 1)...)
		} else {
			out = append(out, Hold(skipped, 1)...)
		}
	}
	return out
}

func face(frames int, pose detector.FacePose) Session {
	return Hold(detector.Observation{Face: detector.SyntheticFace(pose), FaceEvaluated: true}, frames)
}

func hands(frames int, h ...detector.HandLandmarks) Session {
	return Hold(detector.Observation{Hands: h, FaceEvaluated: true}, frames)
}

// Concat joins sessions in order.
func Concat(sessions ...Session) Session {
	var out Session
	for _, s := range sessions {
		out = append(out, s...)
	}
	return out
}

// Len returns the total number of frames.
func (s Session) Len() int {
	n := 0
	for _, st := range s {
		n += st.Frames
	}
	return n
}

// WriteTo writes one JSON line per frame.
func (s Session) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, st := range s {
		line, err := detector.EncodeObservation(st.Obs)
		if err != nil {
			return n, fmt.Errorf("encode observation: %w", err)
		}
		for i := 0; i < st.Frames; i++ {
			m, err := bw.Write(line)
			n += int64(m)
			if err != nil {
				return n, err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, bw.Flush()
}

// Save writes the session to path.
func (s Session) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if _, err := s.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write session %s: %w", path, err)
	}
	return f.Close()
}

// Replay returns a detector that plays the session back.
func (s Session) Replay(loop bool) (*detector.ReplayDetector, error) {
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, err
	}
	return detector.NewReplayDetector(&buf, loop)
}
