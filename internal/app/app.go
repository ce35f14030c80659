// Package app wires the landmark source, the frame pipeline, persistence and
// element actions into the running mudra application.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/dwell"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/particle"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/render"
	"github.com/ayusman/mudra/internal/store"
)

// ErrNoSource is returned by New when no detector was supplied.
var ErrNoSource = errors.New("no landmark source")

// subscriberBuffer is the activation backlog kept per subscriber.
const subscriberBuffer = 16

// Option configures an App.
type Option func(*App)

// WithStore persists activations, sessions, density and settings.
func WithStore(s *store.Store) Option {
	return func(a *App) { a.store = s }
}

// WithCamera reads frames from c and gates the frame rate on motion. Without a
// camera the detector is polled with nil frames at the replay rate.
func WithCamera(c capture.Camera) Option {
	return func(a *App) { a.camera = c }
}

// WithDetector sets the landmark source.
func WithDetector(d detector.Detector) Option {
	return func(a *App) { a.detector = d }
}

// WithDispatcher runs bound plugin actions on activation.
func WithDispatcher(d *plugin.Dispatcher) Option {
	return func(a *App) { a.dispatcher = d }
}

// App is the main application that drives the pipeline from a landmark source.
type App struct {
	mu         sync.RWMutex
	cfg        *config.Config
	log        logrus.FieldLogger
	store      *store.Store
	camera     capture.Camera
	motion     *capture.MotionDetector
	gate       *capture.Gate
	detector   detector.Detector
	dispatcher *plugin.Dispatcher
	state      *gesture.InteractionState
	pipeline   *Pipeline

	enabled bool
	session *store.Session
	stopCh  chan struct{}
	done    chan struct{}
	mode    atomic.Value

	actionCtx    context.Context
	cancelAction context.CancelFunc
	actions      sync.WaitGroup

	subMu          sync.Mutex
	subs           map[int]chan dwell.Activation
	nextSub        int
	lastActivation *dwell.Activation
}

// New creates an App. Persisted runtime settings and the last density are
// restored from the store when one is given.
func New(cfg *config.Config, log logrus.FieldLogger, opts ...Option) (*App, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	a := &App{
		cfg:     cfg.Clone(),
		log:     log,
		enabled: true,
		subs:    make(map[int]chan dwell.Activation),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.detector == nil {
		return nil, ErrNoSource
	}

	density := gesture.DefaultDensity
	if a.store != nil {
		a.restoreSettings()
		if a.cfg.Pipeline.PersistDensity {
			d, err := a.store.Settings().GetFloat(store.SettingDensity)
			switch {
			case err == nil:
				density = d
				a.log.WithField("density", d).Info("Restored density")
			case !errors.Is(err, store.ErrNotFound):
				a.log.WithError(err).Warn("Failed to load density")
			}
		}
	}

	a.state = gesture.NewInteractionState(density)
	a.pipeline = NewPipeline(a.cfg, a.state, a.handleActivation, log)
	a.scheduleFace(a.cfg)
	a.motion = capture.NewMotionDetector(a.cfg.Motion)
	a.gate = capture.NewGate(a.cfg.Gate)
	a.actionCtx, a.cancelAction = context.WithCancel(context.Background())

	if a.camera != nil {
		a.mode.Store(string(a.gate.Mode()))
	} else {
		a.mode.Store(string(capture.ModeActive))
	}
	return a, nil
}

// restoreSettings overlays persisted live settings. A batch that would leave
// the configuration invalid is discarded as a whole.
func (a *App) restoreSettings() {
	overrides, err := a.store.Settings().All()
	if err != nil {
		a.log.WithError(err).Warn("Failed to load settings")
		return
	}
	delete(overrides, store.SettingDensity)
	if len(overrides) == 0 {
		return
	}

	next := a.cfg.Clone()
	if err := next.ApplyOverrides(overrides); err != nil {
		a.log.WithError(err).Warn("Ignoring some persisted settings")
	}
	if err := next.Validate(); err != nil {
		a.log.WithError(err).Warn("Persisted settings are invalid, using configured values")
		return
	}
	a.cfg = next
	a.log.WithField("count", len(overrides)).Info("Restored settings")
}

// SetEnabled pauses or resumes frame processing.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled reports whether frames are being processed.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Start opens the camera and runs the frame loop in a goroutine. It is a no-op
// while already running.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if a.camera != nil {
		if err := a.camera.Open(); err != nil {
			return fmt.Errorf("open camera: %w", err)
		}
		a.camera.SetFPS(a.gate.FPS())
	}

	if a.store != nil {
		sess, err := a.store.Sessions().Start(time.Now())
		if err != nil {
			a.log.WithError(err).Warn("Failed to record session start")
		} else {
			a.session = sess
		}
	}

	a.actionCtx, a.cancelAction = context.WithCancel(context.Background())
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.run(a.stopCh, a.done)

	a.log.WithFields(logrus.Fields{
		"source": a.cfg.Source.Kind,
		"camera": a.camera != nil,
	}).Info("Pipeline started")
	return nil
}

// Done is closed when the frame loop exits, either after Stop or when a
// non-looping replay runs out. It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// Stop halts the frame loop, waits for running actions, releases the source
// and records the session.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh = nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	a.cancelAction()
	a.actions.Wait()

	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			a.log.WithError(err).Warn("Error closing camera")
		}
	}
	a.motion.Close()
	if err := a.detector.Close(); err != nil {
		a.log.WithError(err).Warn("Error closing detector")
	}

	a.persistSession()
	a.log.WithField("frames", a.pipeline.Frames()).Info("Pipeline stopped")
}

func (a *App) persistSession() {
	if a.store == nil {
		return
	}
	density := a.state.Snapshot().Density
	now := time.Now()

	a.mu.Lock()
	sess := a.session
	a.session = nil
	a.mu.Unlock()

	if sess != nil {
		if err := a.store.Sessions().End(sess.ID, now, a.pipeline.Frames(), density); err != nil {
			a.log.WithError(err).Warn("Failed to record session end")
		}
	}
	if a.cfg.Pipeline.PersistDensity {
		if err := a.store.Settings().SetFloat(store.SettingDensity, density); err != nil {
			a.log.WithError(err).Warn("Failed to save density")
		}
	}
}

// handleActivation runs on the frame loop goroutine for every fired element.
func (a *App) handleActivation(act dwell.Activation) {
	a.log.WithFields(logrus.Fields{
		"element": act.ElementID,
		"label":   act.Label,
		"id":      act.ID,
	}).Info("Element activated")

	a.mu.Lock()
	var sessionID string
	if a.session != nil {
		sessionID = a.session.ID
	}
	a.mu.Unlock()

	if a.store != nil {
		rec := &store.Activation{
			ID:          act.ID,
			SessionID:   sessionID,
			ElementID:   act.ElementID,
			Label:       act.Label,
			ActivatedAt: act.At,
		}
		if err := a.store.Activations().Create(rec); err != nil {
			a.log.WithError(err).WithField("element", act.ElementID).Warn("Failed to store activation")
		}
	}

	a.publish(act)

	if a.dispatcher != nil && a.dispatcher.Bound(act.ElementID) {
		ctx := a.actionCtx
		a.actions.Add(1)
		go func() {
			defer a.actions.Done()
			if _, err := a.dispatcher.Dispatch(ctx, act); err != nil {
				a.log.WithError(err).WithField("element", act.ElementID).Warn("Element action failed")
			}
		}()
	}
}

// Subscribe returns a channel receiving every activation from now on and a
// function that unsubscribes and closes it. Slow subscribers miss events
// rather than stall the pipeline.
func (a *App) Subscribe() (<-chan dwell.Activation, func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	id := a.nextSub
	a.nextSub++
	ch := make(chan dwell.Activation, subscriberBuffer)
	a.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			defer a.subMu.Unlock()
			delete(a.subs, id)
			close(ch)
		})
	}
}

func (a *App) publish(act dwell.Activation) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	last := act
	a.lastActivation = &last
	for _, ch := range a.subs {
		select {
		case ch <- act:
		default:
			a.log.WithField("element", act.ElementID).Debug("Dropped activation for slow subscriber")
		}
	}
}

// LastActivation returns the most recent activation, if any.
func (a *App) LastActivation() (dwell.Activation, bool) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	if a.lastActivation == nil {
		return dwell.Activation{}, false
	}
	return *a.lastActivation, true
}

// Snapshot returns the state after the most recent frame.
func (a *App) Snapshot() Snapshot {
	s := a.pipeline.Snapshot()
	s.Mode, _ = a.mode.Load().(string)
	return s
}

// AppendParticles appends a copy of the current particles to dst.
func (a *App) AppendParticles(dst []particle.Particle) []particle.Particle {
	return a.pipeline.AppendParticles(dst)
}

// Scene returns the current state ready for drawing.
func (a *App) Scene() render.Scene {
	snap := a.Snapshot()

	a.mu.RLock()
	vp := a.cfg.Dwell.Viewport
	status := snap.Mode
	if !a.enabled {
		status = "paused"
	}
	a.mu.RUnlock()

	return render.Scene{
		Viewport:  vp,
		Elements:  snap.Elements,
		Hands:     snap.Hands,
		Field:     snap.Field,
		Particles: a.AppendParticles(nil),
		Status:    status,
	}
}

// Pipeline returns the frame pipeline.
func (a *App) Pipeline() *Pipeline {
	return a.pipeline
}

// Config returns a copy of the effective configuration.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.Clone()
}

// Settings returns the current value of every live setting.
func (a *App) Settings() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.LiveValues()
}

// UpdateSetting validates and applies a live setting, then persists it. The
// running configuration is unchanged when validation fails.
func (a *App) UpdateSetting(key, value string) error {
	a.mu.Lock()
	next, err := a.cfg.SetLive(key, value)
	if err != nil {
		a.mu.Unlock()
		return err
	}
	a.cfg = next
	a.mu.Unlock()

	a.pipeline.Configure(next)
	a.scheduleFace(next)
	a.log.WithFields(logrus.Fields{"key": key, "value": value}).Info("Setting changed")

	if a.store != nil {
		stored, _ := next.Get(key)
		if err := a.store.Settings().Set(key, stored); err != nil {
			return fmt.Errorf("persist %s: %w", key, err)
		}
	}
	return nil
}

// scheduleFace passes the face cadence to sources that can change it.
func (a *App) scheduleFace(cfg *config.Config) {
	if s, ok := a.detector.(detector.FaceScheduler); ok {
		s.SetFaceEvery(cfg.Detector.FaceEvery)
	}
}

// ResetSetting returns key to the value in base and removes the persisted
// override.
func (a *App) ResetSetting(base *config.Config, key string) error {
	value, err := base.Get(key)
	if err != nil {
		return err
	}
	if err := a.UpdateSetting(key, value); err != nil {
		return err
	}
	if a.store != nil {
		if err := a.store.Settings().Delete(key); err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	return nil
}
