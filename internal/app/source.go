package app

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
)

// OpenSource builds the landmark source selected by cfg.Source. The camera is
// nil for replay and mock sources. A camera source falls back to the mock
// detector when the tracker service is unavailable. Recorded sessions keep the
// face cadence they were captured with; live sources evaluate the face on one
// frame in cfg.Detector.FaceEvery.
func OpenSource(cfg *config.Config, log logrus.FieldLogger) (detector.Detector, capture.Camera, error) {
	switch cfg.Source.Kind {
	case config.SourceReplay:
		d, err := detector.OpenReplay(cfg.Source.ReplayPath, cfg.Source.Loop)
		if err != nil {
			return nil, nil, fmt.Errorf("replay %s: %w", cfg.Source.ReplayPath, err)
		}
		log.WithFields(logrus.Fields{
			"path":   cfg.Source.ReplayPath,
			"frames": d.Len(),
			"loop":   cfg.Source.Loop,
		}).Info("Using recorded session")
		return d, nil, nil

	case config.SourceMock:
		log.Info("Using mock landmark source")
		return detector.NewFaceThrottle(detector.NewMockDetector(), cfg.Detector.FaceEvery), nil, nil

	case config.SourceCamera, "":
		cam := capture.NewCamera(cfg.Capture)
		mp, err := detector.NewMediaPipeDetector(cfg.Detector, log)
		if err != nil {
			log.WithError(err).Warn("MediaPipe not available, using mock detector")
			return detector.NewFaceThrottle(detector.NewMockDetector(), cfg.Detector.FaceEvery), cam, nil
		}
		log.Info("Using MediaPipe landmark tracking")
		return mp, cam, nil

	default:
		return nil, nil, fmt.Errorf("unknown source %q", cfg.Source.Kind)
	}
}
