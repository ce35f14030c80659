package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// ErrUnknownSetting is returned for keys that are not settable.
var ErrUnknownSetting = errors.New("unknown setting")

// ErrNotLive is returned when a startup-only key is changed at runtime.
var ErrNotLive = errors.New("setting only applies at startup")

type setting struct {
	get func(*Config) string
	set func(*Config, string) error
	// live settings can be changed through the API and persisted.
	live bool
}

func floatSetting(field func(*Config) *float64, live bool) setting {
	return setting{
		get: func(c *Config) string { return strconv.FormatFloat(*field(c), 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			*field(c) = f
			return nil
		},
		live: live,
	}
}

func intSetting(field func(*Config) *int, live bool) setting {
	return setting{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*field(c) = n
			return nil
		},
		live: live,
	}
}

func boolSetting(field func(*Config) *bool, live bool) setting {
	return setting{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			*field(c) = b
			return nil
		},
		live: live,
	}
}

func durationSetting(field func(*Config) *time.Duration, live bool) setting {
	return setting{
		get: func(c *Config) string { return field(c).String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			*field(c) = d
			return nil
		},
		live: live,
	}
}

func stringSetting(field func(*Config) *string) setting {
	return setting{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			*field(c) = v
			return nil
		},
	}
}

var settings = map[string]setting{
	"log.level":           stringSetting(func(c *Config) *string { return &c.Log.Level }),
	"log.file":            stringSetting(func(c *Config) *string { return &c.Log.File }),
	"store.path":          stringSetting(func(c *Config) *string { return &c.Store.Path }),
	"server.addr":         stringSetting(func(c *Config) *string { return &c.Server.Addr }),
	"source.kind":         stringSetting(func(c *Config) *string { return &c.Source.Kind }),
	"source.replay_path":  stringSetting(func(c *Config) *string { return &c.Source.ReplayPath }),
	"source.loop":         boolSetting(func(c *Config) *bool { return &c.Source.Loop }, false),
	"capture.device_id":   intSetting(func(c *Config) *int { return &c.Capture.DeviceID }, false),
	"detector.max_hands":  intSetting(func(c *Config) *int { return &c.Detector.MaxHands }, false),
	"detector.face":       boolSetting(func(c *Config) *bool { return &c.Detector.Face }, false),
	"ui.mode":             stringSetting(func(c *Config) *string { return &c.UI.Mode }),
	"particle.count":      intSetting(func(c *Config) *int { return &c.Particle.Count }, false),
	"detector.face_every": intSetting(func(c *Config) *int { return &c.Detector.FaceEvery }, true),

	"dwell.dwell_time":              durationSetting(func(c *Config) *time.Duration { return &c.Dwell.DwellTime }, true),
	"face.smile_threshold":          floatSetting(func(c *Config) *float64 { return &c.Face.SmileThreshold }, true),
	"gesture.density_step":          floatSetting(func(c *Config) *float64 { return &c.Gesture.DensityStep }, true),
	"gesture.thresholds.curled":     floatSetting(func(c *Config) *float64 { return &c.Gesture.Thresholds.Curled }, true),
	"gesture.thresholds.extended":   floatSetting(func(c *Config) *float64 { return &c.Gesture.Thresholds.Extended }, true),
	"gesture.thresholds.open":       floatSetting(func(c *Config) *float64 { return &c.Gesture.Thresholds.Open }, true),
	"particle.fall_chance":          floatSetting(func(c *Config) *float64 { return &c.Particle.FallChance }, true),
	"particle.fall_gravity":         floatSetting(func(c *Config) *float64 { return &c.Particle.FallGravity }, true),
	"particle.respawn_y":            floatSetting(func(c *Config) *float64 { return &c.Particle.RespawnY }, true),
	"particle.mouth_open_trigger":   floatSetting(func(c *Config) *float64 { return &c.Particle.MouthOpenTrigger }, true),
	"particle.mouth_cycle":          durationSetting(func(c *Config) *time.Duration { return &c.Particle.MouthCycle }, true),
	"particle.mouth_lock_reset":     durationSetting(func(c *Config) *time.Duration { return &c.Particle.MouthLockReset }, true),
	"particle.head_turn_min":        floatSetting(func(c *Config) *float64 { return &c.Particle.HeadTurnMin }, true),
}

// Keys returns every setting key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LiveKeys returns the keys that can change while running.
func LiveKeys() []string {
	var keys []string
	for _, k := range Keys() {
		if settings[k].live {
			keys = append(keys, k)
		}
	}
	return keys
}

// IsLive reports whether key can change while running.
func IsLive(key string) bool {
	return settings[key].live
}

// Get returns the current value of key.
func (c *Config) Get(key string) (string, error) {
	s, ok := settings[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, ErrUnknownSetting)
	}
	return s.get(c), nil
}

// Set parses value into key without validating the result.
func (c *Config) Set(key, value string) error {
	s, ok := settings[key]
	if !ok {
		return fmt.Errorf("%s: %w", key, ErrUnknownSetting)
	}
	if err := s.set(c, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// SetLive applies a runtime change to a copy of c and validates it. c is left
// untouched on error.
func (c *Config) SetLive(key, value string) (*Config, error) {
	s, ok := settings[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrUnknownSetting)
	}
	if !s.live {
		return nil, fmt.Errorf("%s: %w", key, ErrNotLive)
	}

	next := c.Clone()
	if err := s.set(next, value); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", key, ErrInvalid, err)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

// LiveValues returns the current value of every live key.
func (c *Config) LiveValues() map[string]string {
	out := make(map[string]string)
	for _, k := range LiveKeys() {
		out[k] = settings[k].get(c)
	}
	return out
}
