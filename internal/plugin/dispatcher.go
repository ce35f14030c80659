package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/dwell"
)

// ErrNoBinding is returned when an activated element has no bound action.
var ErrNoBinding = errors.New("no action bound to element")

// ErrActionFailed is returned when a plugin reports success=false.
var ErrActionFailed = errors.New("plugin action failed")

// Dispatcher runs the action bound to each activated element.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	bindings map[string]Binding
	log      logrus.FieldLogger
}

// NewDispatcher creates a Dispatcher. Call Discover before dispatching.
func NewDispatcher(config Config, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	bindings := make(map[string]Binding, len(config.Bindings))
	for _, b := range config.Bindings {
		bindings[b.Element] = b
	}
	return &Dispatcher{
		manager:  NewManager(config.Dir, log),
		executor: NewExecutor(config.Timeout),
		bindings: bindings,
		log:      log,
	}
}

// Discover loads plugins and warns about bindings that cannot run.
func (d *Dispatcher) Discover() error {
	if err := d.manager.Discover(); err != nil {
		return fmt.Errorf("discover plugins: %w", err)
	}
	for _, b := range d.bindings {
		p, err := d.manager.Get(b.Plugin)
		if err != nil {
			d.log.WithFields(logrus.Fields{"element": b.Element, "plugin": b.Plugin}).Warn("Bound plugin not found")
			continue
		}
		if !p.Manifest.Supports(b.Action) {
			d.log.WithFields(logrus.Fields{"element": b.Element, "plugin": b.Plugin, "action": b.Action}).Warn("Bound plugin does not declare action")
		}
	}
	d.log.WithField("count", len(d.manager.List())).Info("Plugins discovered")
	return nil
}

// Manager returns the plugin manager.
func (d *Dispatcher) Manager() *Manager {
	return d.manager
}

// Bound reports whether element has an action.
func (d *Dispatcher) Bound(element string) bool {
	_, ok := d.bindings[element]
	return ok
}

// Dispatch runs the action bound to the activated element and waits for it.
func (d *Dispatcher) Dispatch(ctx context.Context, a dwell.Activation) (*Response, error) {
	b, ok := d.bindings[a.ElementID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", a.ElementID, ErrNoBinding)
	}

	p, err := d.manager.Get(b.Plugin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.Plugin, err)
	}

	req := &Request{
		Action:       b.Action,
		Element:      a.ElementID,
		Label:        a.Label,
		ActivationID: a.ID,
		ActivatedAt:  a.At,
	}
	if len(b.Params) > 0 {
		req.Params, err = json.Marshal(b.Params)
		if err != nil {
			return nil, fmt.Errorf("marshal params for %s: %w", a.ElementID, err)
		}
	}

	resp, err := d.executor.Execute(ctx, p, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return resp, fmt.Errorf("%s/%s: %w: %s", b.Plugin, b.Action, ErrActionFailed, resp.Error)
	}
	return resp, nil
}
