package detector

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// serviceIdleTimeout shuts the tracker process down after this long without frames.
const serviceIdleTimeout = 30 * time.Second

const serviceScript = "scripts/tracker_service.py"

// flagFace asks the tracker service to run the face mesh on this frame.
const flagFace byte = 1

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess that
// runs the hand model on each frame and the face mesh on one frame in FaceEvery.
type MediaPipeDetector struct {
	config    Config
	log       logrus.FieldLogger
	script    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer
	face      cadence
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config, log logrus.FieldLogger) (*MediaPipeDetector, error) {
	script := findFirst(searchPaths(serviceScript))
	if script == "" {
		return nil, fmt.Errorf("%s not found", filepath.Base(serviceScript))
	}

	d := &MediaPipeDetector{
		config: config,
		log:    log.WithField("component", "mediapipe"),
		script: script,
	}
	d.face.set(config.FaceEvery)
	return d, nil
}

// SetFaceEvery changes how often the face mesh runs.
func (d *MediaPipeDetector) SetFaceEvery(every int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.face.set(every)
}

// Detect sends the frame to the tracker service and decodes its reply.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (Observation, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return Observation{}, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return Observation{}, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	faceDue := d.config.Face && d.face.due()
	var flags byte
	if faceDue {
		flags |= flagFace
	}

	// Frames are length-prefixed (4 bytes big-endian) followed by a flags byte.
	var header [5]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(data)))
	header[4] = flags

	if _, err := d.stdin.Write(header[:]); err != nil {
		return Observation{}, fmt.Errorf("write header: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return Observation{}, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return Observation{}, fmt.Errorf("read response: %w", err)
	}

	obs, err := DecodeObservation(line)
	if err != nil {
		return Observation{}, err
	}
	if obs.TimestampMs == 0 {
		obs.TimestampMs = time.Now().UnixMilli()
	}
	// With the face model off every frame counts as evaluated with no face.
	obs.FaceEvaluated = faceDue || !d.config.Face
	if !faceDue {
		obs.Face = nil
	}

	d.resetIdleTimer()
	return obs, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	python := findFirst(searchPaths("venv/bin/python"))
	if python == "" {
		python = "python3"
	}

	args := []string{
		d.script,
		"--max-hands", strconv.Itoa(d.config.MaxHands),
		"--min-confidence", strconv.FormatFloat(d.config.MinConfidence, 'f', 2, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	}
	if d.config.Face {
		args = append(args, "--face")
	}
	if d.config.Pose {
		args = append(args, "--pose")
	}

	d.cmd = exec.Command(python, args...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start tracker service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	d.log.WithFields(logrus.Fields{
		"python": python,
		"face":   d.config.Face,
		"pose":   d.config.Pose,
	}).Info("tracker service started")

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	d.log.Info("tracker service stopped")
	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(serviceIdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			d.log.WithError(err).Warn("tracker service exited with error")
		}
	})
}

// searchPaths lists the locations checked for a file shipped next to the
// binary or under ~/.mudra.
func searchPaths(rel string) []string {
	candidates := []string{rel, filepath.Join("..", rel), filepath.Join("..", "..", rel)}

	if execPath, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(execPath), rel))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".mudra", rel))
	}
	return candidates
}

// findFirst returns the absolute path of the first existing candidate.
func findFirst(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}
