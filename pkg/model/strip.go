package model

// AutomationState is the automation mode of a control.
type AutomationState uint8

const (
	// AutomationOff means the control follows manual input only.
	AutomationOff AutomationState = iota
	// AutomationPlay means the control follows recorded automation.
	AutomationPlay
	// AutomationWrite means the control records every value.
	AutomationWrite
	// AutomationTouch means the control plays back until touched, then records.
	AutomationTouch
	// AutomationLatch means the control records from first touch until stop.
	AutomationLatch
)

// String returns the automation state name.
func (a AutomationState) String() string {
	switch a {
	case AutomationOff:
		return "OFF"
	case AutomationPlay:
		return "PLAY"
	case AutomationWrite:
		return "WRITE"
	case AutomationTouch:
		return "TOUCH"
	case AutomationLatch:
		return "LATCH"
	default:
		return "UNKNOWN"
	}
}

// IsPlaying reports whether values move on their own during playback.
func (a AutomationState) IsPlaying() bool {
	return a == AutomationPlay || a == AutomationTouch
}

// PropertyChange is a bitset of strip properties reported by a change notification.
type PropertyChange uint8

const (
	PropertyName PropertyChange = 1 << iota
	PropertyHidden
	PropertySelected
)

// Contains reports whether every property in p is part of the change.
func (c PropertyChange) Contains(p PropertyChange) bool {
	return c&p == p
}

// MonitorChoice is the value of a track's combined monitoring control.
type MonitorChoice uint8

const (
	MonitorAuto  MonitorChoice = 0
	MonitorInput MonitorChoice = 1
	MonitorDisk  MonitorChoice = 2
	MonitorCue   MonitorChoice = 3 // input and disk
)

// Control is a single automatable value on a strip.
type Control interface {
	// Value returns the current internal value.
	Value() float64

	// InternalToInterface maps an internal value to the 0..1 range a
	// control surface displays.
	InternalToInterface(v float64) float64

	// OnChange registers fn to be called after every value change.
	OnChange(fn func()) Connection
}

// GainControl is the strip's main level control. Its value is a linear coefficient.
type GainControl interface {
	Control

	// AutomationState returns the current automation mode.
	AutomationState() AutomationState

	// OnAutomationStateChange registers fn to be called when the mode changes.
	OnAutomationStateChange(fn func()) Connection
}

// Meter reads a strip's peak level.
type Meter interface {
	// Level returns the current peak in dBFS.
	Level() float64
}

// Strip is one mixer channel as exposed by the mixing engine.
//
// Optional controls (SoloIsolate, SoloSafe, RecEnable, RecSafe, Monitoring,
// Trim, Pan, PeakMeter) return a nil interface when the strip does not have them.
type Strip interface {
	Name() string
	Hidden() bool
	Selected() bool

	// OnPropertyChange registers fn for name, visibility and selection changes.
	OnPropertyChange(fn func(PropertyChange)) Connection

	// OnDropReferences registers fn to be called once, just before the strip
	// is destroyed. After it fires the strip must not be read again.
	OnDropReferences(fn func()) Connection

	Mute() Control
	Solo() Control
	SoloIsolate() Control
	SoloSafe() Control
	RecEnable() Control
	RecSafe() Control
	Monitoring() Control
	Gain() GainControl
	Trim() Control
	Pan() Control
	PeakMeter() Meter
}
