// Package config loads the YAML configuration shared by the oscstrip commands.
//
// A configuration file looks like:
//
//	surface:
//	  remote_url: osc.udp://127.0.0.1:9000/
//	  feedback: [buttons, levels, meter, signal]
//	  gain_mode: 1
//	  routing: unicast
//	  expand: 0
//	  link_readiness: 0
//	  slots: 8
//	engine:
//	  strips: 16
//	  tick_interval: 100ms
//	logging:
//	  level: info
//	  protocol_log: session.oslog
//
// Values left out keep the defaults from Default. Command-line flags are
// applied on top with Apply.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oscstrip/oscstrip-go/pkg/feedback"
	"github.com/oscstrip/oscstrip-go/pkg/surface"
	"github.com/oscstrip/oscstrip-go/pkg/transport"
	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

// Defaults.
const (
	DefaultRemoteURL = "osc.udp://127.0.0.1:9000/"
	DefaultSlots     = 8
	DefaultStrips    = 16
)

var (
	// ErrInvalidConfig is wrapped by every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the top-level configuration file.
type Config struct {
	Surface Surface `yaml:"surface"`
	Engine  Engine  `yaml:"engine"`
	Logging Logging `yaml:"logging"`
}

// Surface describes the remote control surface.
type Surface struct {
	// RemoteURL is where feedback is sent.
	RemoteURL string `yaml:"remote_url"`

	// Feedback lists the enabled feedback categories by name
	// (buttons, levels, id_in_path, meter, meter_led, signal, ...).
	Feedback []string `yaml:"feedback"`

	// GainMode is 0 (dB), 1 (fader + name) or 2 (fader + dB).
	GainMode int `yaml:"gain_mode"`

	// Routing is "unicast" or "broadcast".
	Routing string `yaml:"routing"`

	// Expand is the initially expanded slot; 0 means none.
	Expand uint32 `yaml:"expand"`

	// LinkReadiness is the number of linked surfaces still missing.
	LinkReadiness uint32 `yaml:"link_readiness"`

	// Slots is the number of strips the surface shows at once.
	Slots int `yaml:"slots"`

	// QueueSize bounds the outbound queue; 0 uses the transport default.
	QueueSize int `yaml:"queue_size,omitempty"`
}

// Engine describes the simulated mixer.
type Engine struct {
	// Strips is the number of channels in the mixer.
	Strips int `yaml:"strips"`

	// TickInterval is the feedback sampling period, e.g. "100ms".
	TickInterval string `yaml:"tick_interval"`
}

// Logging configures operational and protocol logging.
type Logging struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// ProtocolLog is a capture file path; empty disables capture.
	ProtocolLog string `yaml:"protocol_log"`
}

// Error describes a failure to load a configuration file.
type Error struct {
	File    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Default returns a configuration with buttons and levels feedback to a
// local surface.
func Default() *Config {
	return &Config{
		Surface: Surface{
			RemoteURL: DefaultRemoteURL,
			Feedback:  []string{"buttons", "levels"},
			Routing:   "unicast",
			Slots:     DefaultSlots,
		},
		Engine: Engine{
			Strips:       DefaultStrips,
			TickInterval: surface.DefaultTickInterval.String(),
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &Error{Message: "failed to parse YAML", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &Error{Message: "validation failed", Cause: err}
	}
	return cfg, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{File: path, Message: "failed to read file", Cause: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.File = path
		}
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if _, err := c.FeedbackConfig(); err != nil {
		return err
	}
	if _, _, err := transport.ParseRemoteURL(c.Surface.RemoteURL); err != nil {
		return fmt.Errorf("%w: surface.remote_url: %w", ErrInvalidConfig, err)
	}
	if c.Surface.Slots <= 0 {
		return fmt.Errorf("%w: surface.slots must be positive, got %d", ErrInvalidConfig, c.Surface.Slots)
	}
	if c.Surface.QueueSize < 0 {
		return fmt.Errorf("%w: surface.queue_size must not be negative", ErrInvalidConfig)
	}
	if c.Engine.Strips < 0 {
		return fmt.Errorf("%w: engine.strips must not be negative", ErrInvalidConfig)
	}
	if _, err := c.TickInterval(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// FeedbackConfig builds the per-slot observer configuration.
func (c *Config) FeedbackConfig() (feedback.Config, error) {
	flags, err := feedback.ParseFlags(c.Surface.Feedback)
	if err != nil {
		return feedback.Config{}, fmt.Errorf("%w: surface.feedback: %w", ErrInvalidConfig, err)
	}
	routing, err := wire.ParseRouting(c.Surface.Routing)
	if err != nil {
		return feedback.Config{}, fmt.Errorf("%w: surface.routing: %w", ErrInvalidConfig, err)
	}
	if c.Surface.GainMode < 0 || c.Surface.GainMode > int(feedback.GainFaderDB) {
		return feedback.Config{}, fmt.Errorf("%w: surface.gain_mode: %w: %d",
			ErrInvalidConfig, feedback.ErrInvalidGainMode, c.Surface.GainMode)
	}

	return feedback.Config{
		Flags:         flags,
		GainMode:      feedback.GainMode(c.Surface.GainMode),
		Routing:       routing,
		ExpandEnabled: c.Surface.Expand != 0,
		Expand:        c.Surface.Expand,
		LinkReadiness: c.Surface.LinkReadiness,
	}, nil
}

// SurfaceConfig builds the surface driver configuration.
func (c *Config) SurfaceConfig() (surface.Config, error) {
	fb, err := c.FeedbackConfig()
	if err != nil {
		return surface.Config{}, err
	}
	interval, err := c.TickInterval()
	if err != nil {
		return surface.Config{}, err
	}
	return surface.Config{
		RemoteURL:    c.Surface.RemoteURL,
		Feedback:     fb,
		TickInterval: interval,
	}, nil
}

// TransportConfig builds the dispatcher configuration. Logger, capture and
// dialer are left for the caller.
func (c *Config) TransportConfig() (transport.Config, error) {
	fb, err := c.FeedbackConfig()
	if err != nil {
		return transport.Config{}, err
	}
	return transport.Config{
		QueueSize: c.Surface.QueueSize,
		IDInPath:  fb.Flags.Has(feedback.FlagIDInPath),
	}, nil
}

// TickInterval parses engine.tick_interval. Empty means the surface default.
func (c *Config) TickInterval() (time.Duration, error) {
	if c.Engine.TickInterval == "" {
		return surface.DefaultTickInterval, nil
	}
	d, err := time.ParseDuration(c.Engine.TickInterval)
	if err != nil {
		return 0, fmt.Errorf("%w: engine.tick_interval: %w", ErrInvalidConfig, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: engine.tick_interval must be positive, got %s", ErrInvalidConfig, d)
	}
	return d, nil
}

// LogLevel parses logging.level.
func (c *Config) LogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: logging.level: unknown level %q", ErrInvalidConfig, c.Logging.Level)
	}
}
