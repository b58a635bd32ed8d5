package model

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrControlNotFound is returned when a channel has no control with the requested ID.
var ErrControlNotFound = errors.New("control not found")

// ControlID names a parameter on a Channel.
type ControlID uint8

const (
	ControlMute ControlID = iota
	ControlSolo
	ControlSoloIsolate
	ControlSoloSafe
	ControlRecEnable
	ControlRecSafe
	ControlMonitoring
	ControlGain
	ControlTrim
	ControlPan
)

var controlNames = map[ControlID]string{
	ControlMute:        "mute",
	ControlSolo:        "solo",
	ControlSoloIsolate: "solo_iso",
	ControlSoloSafe:    "solo_safe",
	ControlRecEnable:   "recenable",
	ControlRecSafe:     "record_safe",
	ControlMonitoring:  "monitoring",
	ControlGain:        "gain",
	ControlTrim:        "trim",
	ControlPan:         "pan",
}

// String returns the control name.
func (id ControlID) String() string {
	if name, ok := controlNames[id]; ok {
		return name
	}
	return "unknown"
}

// ParseControlID returns the ControlID with the given name.
func ParseControlID(name string) (ControlID, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for id, n := range controlNames {
		if n == name {
			return id, nil
		}
	}
	return 0, ErrControlNotFound
}

// Parameter is the in-memory Control used by Channel.
type Parameter struct {
	mu          sync.RWMutex
	value       float64
	toInterface func(float64) float64
	changed     Signal[struct{}]
}

// NewParameter creates a parameter whose interface value equals its internal value.
func NewParameter(initial float64) *Parameter {
	return &Parameter{value: initial}
}

// Value returns the current value.
func (p *Parameter) Value() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set stores v and notifies subscribers. Subscribers are notified on every
// call, whether or not the value moved.
func (p *Parameter) Set(v float64) {
	p.mu.Lock()
	p.value = v
	p.mu.Unlock()

	p.changed.Emit(struct{}{})
}

// InternalToInterface maps v to the surface range.
func (p *Parameter) InternalToInterface(v float64) float64 {
	if p.toInterface == nil {
		return v
	}
	return p.toInterface(v)
}

// OnChange registers fn for value changes.
func (p *Parameter) OnChange(fn func()) Connection {
	return p.changed.Connect(func(struct{}) { fn() })
}

// Subscribers returns the number of change handlers currently connected.
func (p *Parameter) Subscribers() int {
	return p.changed.Count()
}

// GainParameter is a Parameter with a linear gain value and an automation mode.
type GainParameter struct {
	*Parameter

	autoMu      sync.RWMutex
	automation  AutomationState
	autoChanged Signal[struct{}]
}

// NewGainParameter creates a gain control at the given linear coefficient.
func NewGainParameter(initial float64) *GainParameter {
	p := NewParameter(initial)
	p.toInterface = GainToPosition
	return &GainParameter{Parameter: p}
}

// AutomationState returns the current automation mode.
func (g *GainParameter) AutomationState() AutomationState {
	g.autoMu.RLock()
	defer g.autoMu.RUnlock()
	return g.automation
}

// SetAutomationState changes the automation mode and notifies subscribers.
func (g *GainParameter) SetAutomationState(s AutomationState) {
	g.autoMu.Lock()
	g.automation = s
	g.autoMu.Unlock()

	g.autoChanged.Emit(struct{}{})
}

// OnAutomationStateChange registers fn for automation mode changes.
func (g *GainParameter) OnAutomationStateChange(fn func()) Connection {
	return g.autoChanged.Connect(func(struct{}) { fn() })
}

// PeakMeter is the in-memory Meter used by Channel.
type PeakMeter struct {
	mu    sync.RWMutex
	level float64
}

// NewPeakMeter creates a meter reading the given level in dBFS.
func NewPeakMeter(level float64) *PeakMeter {
	return &PeakMeter{level: level}
}

// Level returns the current peak in dBFS.
func (m *PeakMeter) Level() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.level
}

// Set stores a new peak level. Meters are polled, so nothing is notified.
func (m *PeakMeter) Set(level float64) {
	m.mu.Lock()
	m.level = level
	m.mu.Unlock()
}

// ChannelOption configures optional parts of a Channel.
type ChannelOption func(*Channel)

// WithTrack gives the channel record and monitoring controls.
func WithTrack() ChannelOption {
	return func(c *Channel) {
		c.params[ControlRecEnable] = NewParameter(0)
		c.params[ControlRecSafe] = NewParameter(0)
		c.params[ControlMonitoring] = NewParameter(float64(MonitorAuto))
	}
}

// WithTrim adds an input trim control at unity gain.
func WithTrim() ChannelOption {
	return func(c *Channel) { c.params[ControlTrim] = NewParameter(1) }
}

// WithPan adds a panner, centered.
func WithPan() ChannelOption {
	return func(c *Channel) { c.params[ControlPan] = NewParameter(0.5) }
}

// WithSoloIsolate adds a solo-isolate control.
func WithSoloIsolate() ChannelOption {
	return func(c *Channel) { c.params[ControlSoloIsolate] = NewParameter(0) }
}

// WithSoloSafe adds a solo-safe control.
func WithSoloSafe() ChannelOption {
	return func(c *Channel) { c.params[ControlSoloSafe] = NewParameter(0) }
}

// WithMeter adds a peak meter reading silence.
func WithMeter() ChannelOption {
	return func(c *Channel) { c.meter = NewPeakMeter(-200) }
}

// Channel is an in-memory Strip. It is the reference engine used by the
// simulator and by tests.
type Channel struct {
	mu       sync.RWMutex
	name     string
	hidden   bool
	selected bool

	params map[ControlID]*Parameter
	gain   *GainParameter
	meter  *PeakMeter

	props     Signal[PropertyChange]
	dropRefs  Signal[struct{}]
	destroyed atomic.Bool
}

// NewChannel creates a channel with mute, solo and gain controls plus the
// controls selected by opts.
func NewChannel(name string, opts ...ChannelOption) *Channel {
	c := &Channel{
		name:   name,
		params: make(map[ControlID]*Parameter),
		gain:   NewGainParameter(1),
	}
	c.params[ControlMute] = NewParameter(0)
	c.params[ControlSolo] = NewParameter(0)

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the channel name.
func (c *Channel) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

// SetName renames the channel.
func (c *Channel) SetName(name string) {
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
	c.props.Emit(PropertyName)
}

// Hidden reports whether the channel is hidden.
func (c *Channel) Hidden() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hidden
}

// SetHidden changes visibility.
func (c *Channel) SetHidden(hidden bool) {
	c.mu.Lock()
	c.hidden = hidden
	c.mu.Unlock()
	c.props.Emit(PropertyHidden)
}

// Selected reports whether the channel is selected.
func (c *Channel) Selected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// SetSelected changes selection.
func (c *Channel) SetSelected(selected bool) {
	c.mu.Lock()
	c.selected = selected
	c.mu.Unlock()
	c.props.Emit(PropertySelected)
}

// OnPropertyChange registers fn for name, visibility and selection changes.
func (c *Channel) OnPropertyChange(fn func(PropertyChange)) Connection {
	return c.props.Connect(fn)
}

// OnDropReferences registers fn to run when the channel is destroyed.
func (c *Channel) OnDropReferences(fn func()) Connection {
	return c.dropRefs.Connect(func(struct{}) { fn() })
}

// Destroy notifies drop-reference subscribers. Only the first call has an effect.
func (c *Channel) Destroy() {
	if c.destroyed.Swap(true) {
		return
	}
	c.dropRefs.Emit(struct{}{})
}

// Destroyed reports whether Destroy has been called.
func (c *Channel) Destroyed() bool {
	return c.destroyed.Load()
}

// Parameter returns the named parameter, or ErrControlNotFound if the channel lacks it.
func (c *Channel) Parameter(id ControlID) (*Parameter, error) {
	if id == ControlGain {
		return c.gain.Parameter, nil
	}
	p, ok := c.params[id]
	if !ok {
		return nil, ErrControlNotFound
	}
	return p, nil
}

// GainParameter returns the concrete gain control.
func (c *Channel) GainParameter() *GainParameter { return c.gain }

// Meter returns the concrete meter, or nil.
func (c *Channel) Meter() *PeakMeter { return c.meter }

// Subscribers returns the number of handlers connected across the channel
// and all of its controls.
func (c *Channel) Subscribers() int {
	n := c.props.Count() + c.dropRefs.Count() + c.gain.Subscribers() + c.gain.autoChanged.Count()
	for _, p := range c.params {
		n += p.Subscribers()
	}
	return n
}

func (c *Channel) control(id ControlID) Control {
	p, ok := c.params[id]
	if !ok {
		return nil
	}
	return p
}

func (c *Channel) Mute() Control { return c.control(ControlMute) }
func (c *Channel) Solo() Control { return c.control(ControlSolo) }
func (c *Channel) SoloIsolate() Control { return c.control(ControlSoloIsolate) }
func (c *Channel) SoloSafe() Control { return c.control(ControlSoloSafe) }
func (c *Channel) RecEnable() Control { return c.control(ControlRecEnable) }
func (c *Channel) RecSafe() Control { return c.control(ControlRecSafe) }
func (c *Channel) Monitoring() Control { return c.control(ControlMonitoring) }
func (c *Channel) Gain() GainControl { return c.gain }
func (c *Channel) Trim() Control { return c.control(ControlTrim) }
func (c *Channel) Pan() Control { return c.control(ControlPan) }

// PeakMeter returns the meter, or nil when the channel has none.
func (c *Channel) PeakMeter() Meter {
	if c.meter == nil {
		return nil
	}
	return c.meter
}

// Compile-time interface satisfaction checks.
var (
	_ Strip       = (*Channel)(nil)
	_ Control     = (*Parameter)(nil)
	_ GainControl = (*GainParameter)(nil)
	_ Meter       = (*PeakMeter)(nil)
)
