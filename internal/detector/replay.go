package detector

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// ReplayDetector plays back a recorded session of JSON-lines observations,
// one per Detect call, ignoring the frame.
type ReplayDetector struct {
	mu    sync.Mutex
	obs   []Observation
	index int
	loop  bool
}

// NewReplayDetector reads every observation from r up front so that malformed
// sessions fail at load time rather than mid-run.
func NewReplayDetector(r io.Reader, loop bool) (*ReplayDetector, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var obs []Observation
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}
		o, err := DecodeObservation(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		obs = append(obs, o)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	return &ReplayDetector{obs: obs, loop: loop}, nil
}

// OpenReplay loads a session file from disk.
func OpenReplay(path string, loop bool) (*ReplayDetector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer f.Close()
	return NewReplayDetector(f, loop)
}

// Len returns the number of recorded observations.
func (d *ReplayDetector) Len() int {
	return len(d.obs)
}

// Detect returns the next recorded observation. It returns io.EOF once the
// session is exhausted and looping is off.
func (d *ReplayDetector) Detect(frame *gocv.Mat) (Observation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.index >= len(d.obs) {
		if !d.loop || len(d.obs) == 0 {
			return Observation{}, io.EOF
		}
		d.index = 0
	}

	o := d.obs[d.index]
	d.index++
	return o, nil
}

// Reset restarts playback from the beginning.
func (d *ReplayDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.index = 0
}

// Close is a no-op.
func (d *ReplayDetector) Close() error {
	return nil
}
