package app

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
)

// run is the frame loop. With a camera it starts at the idle frame rate,
// switches to the active rate on motion and drops back after the idle
// timeout; idle frames skip landmark detection but still advance selection and
// animation. Without a camera the detector is polled at the replay rate until
// it reports io.EOF.
func (a *App) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(a.interval())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			err := a.step(now, ticker)
			if errors.Is(err, io.EOF) {
				a.log.WithField("frames", a.pipeline.Frames()).Info("Landmark source exhausted")
				return
			}
			if err != nil {
				a.log.WithError(err).Warn("Frame dropped")
			}
		}
	}
}

func (a *App) interval() time.Duration {
	if a.camera != nil {
		return a.gate.Interval()
	}
	return time.Second / time.Duration(a.cfg.Pipeline.ReplayFPS)
}

// step processes one tick.
func (a *App) step(now time.Time, ticker *time.Ticker) error {
	var frame *gocv.Mat
	if a.camera != nil {
		f, err := a.camera.ReadFrame()
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		defer f.Close()
		frame = f

		moving, _ := a.motion.Detect(f)
		if a.gate.Observe(moving, now) {
			a.camera.SetFPS(a.gate.FPS())
			ticker.Reset(a.gate.Interval())
			a.mode.Store(string(a.gate.Mode()))
			a.log.WithFields(logrus.Fields{
				"mode": a.gate.Mode(),
				"fps":  a.gate.FPS(),
			}).Info("Capture mode changed")
		}
		if a.gate.Mode() == capture.ModeIdle {
			a.pipeline.ProcessFrame(detector.Observation{}, now)
			return nil
		}
	}

	obs, err := a.detector.Detect(frame)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}
	a.pipeline.ProcessFrame(obs, now)
	return nil
}
