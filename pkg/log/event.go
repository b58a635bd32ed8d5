package log

import (
	"time"

	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

// Event represents a feedback capture event recorded at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies one run of the surface driver (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// SlotID is the surface slot the event belongs to (0 for surface-wide events).
	SlotID uint32 `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer address (host:port) for transport events.
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Message     *MessageEvent     `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"12,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerFeedback is the strip observer (logical messages before addressing).
	LayerFeedback Layer = 0
	// LayerTransport is the OSC datagram layer.
	LayerTransport Layer = 1
	// LayerSurface is the slot manager.
	LayerSurface Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerFeedback:
		return "FEEDBACK"
	case LayerTransport:
		return "TRANSPORT"
	case LayerSurface:
		return "SURFACE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates an outbound feedback message.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures one feedback message.
type MessageEvent struct {
	// Path is the OSC address without any slot suffix.
	Path string `cbor:"1,keyasint"`

	// Payload is the single message argument.
	Payload wire.Value `cbor:"2,keyasint"`

	// Routing is the delivery hint attached by the observer.
	Routing wire.Routing `cbor:"3,keyasint,omitempty"`

	// Dropped is set when the transport discarded the message.
	Dropped bool `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures slot and transport lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntitySlot indicates a strip observer state change.
	StateEntitySlot StateEntity = 0
	// StateEntityEndpoint indicates a remote endpoint was opened or closed.
	StateEntityEndpoint StateEntity = 1
	// StateEntitySurface indicates a surface driver state change.
	StateEntitySurface StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntitySlot:
		return "SLOT"
	case StateEntityEndpoint:
		return "ENDPOINT"
	case StateEntitySurface:
		return "SURFACE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
