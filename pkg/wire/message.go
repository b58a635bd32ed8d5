package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Message validation errors.
var (
	ErrEmptyPath   = errors.New("message path is empty")
	ErrInvalidPath = errors.New("message path must start with '/'")
	ErrInvalidKind = errors.New("invalid payload kind")
)

// Kind identifies the payload type of a Message.
type Kind uint8

const (
	// KindFloat is a 32-bit float on the wire. Booleans travel as 0.0/1.0.
	KindFloat Kind = iota
	// KindInt is a 32-bit signed integer on the wire.
	KindInt
	// KindText is a string.
	KindText
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "FLOAT"
	case KindInt:
		return "INT"
	case KindText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k <= KindText
}

// Value is a typed message payload.
//
// CBOR encoding:
//
//	{
//	  1: kind,   // uint8
//	  2: float,  // float64, KindFloat only
//	  3: int,    // int32, KindInt only
//	  4: text    // string, KindText only
//	}
type Value struct {
	Kind  Kind    `cbor:"1,keyasint"`
	Float float64 `cbor:"2,keyasint,omitempty"`
	Int   int32   `cbor:"3,keyasint,omitempty"`
	Text  string  `cbor:"4,keyasint,omitempty"`
}

// Float returns a float payload.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// Int returns an integer payload.
func Int(i int32) Value { return Value{Kind: KindInt, Int: i} }

// Text returns a string payload.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Bool returns a boolean carried as a float (1.0 or 0.0).
func Bool(b bool) Value {
	if b {
		return Float(1)
	}
	return Float(0)
}

// BoolInt returns a boolean carried as an integer (1 or 0).
func BoolInt(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Any returns the payload as a plain Go value (float64, int32 or string).
func (v Value) Any() any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindText:
		return v.Text
	default:
		return v.Float
	}
}

// String formats the payload for display.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(int64(v.Int), 10)
	case KindText:
		return strconv.Quote(v.Text)
	default:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	}
}

// Routing tells the transport whether a message is meant for the slot's own
// surface only or for every surface that shares the session.
type Routing uint8

const (
	// RoutingUnicast delivers to the surface that owns the slot.
	RoutingUnicast Routing = iota
	// RoutingBroadcast delivers to every registered surface.
	RoutingBroadcast
)

// String returns the routing name.
func (r Routing) String() string {
	switch r {
	case RoutingUnicast:
		return "unicast"
	case RoutingBroadcast:
		return "broadcast"
	default:
		return "unknown"
	}
}

// ParseRouting parses "unicast" or "broadcast" (case-insensitive).
func ParseRouting(s string) (Routing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unicast":
		return RoutingUnicast, nil
	case "broadcast":
		return RoutingBroadcast, nil
	default:
		return 0, fmt.Errorf("unknown routing %q", s)
	}
}

// Message is one feedback update for one surface slot.
//
// CBOR encoding:
//
//	{
//	  1: path,     // string
//	  2: slotId,   // uint32
//	  3: payload,  // Value
//	  4: routing   // uint8
//	}
type Message struct {
	Path    string  `cbor:"1,keyasint"`
	SlotID  uint32  `cbor:"2,keyasint"`
	Payload Value   `cbor:"3,keyasint"`
	Routing Routing `cbor:"4,keyasint,omitempty"`
}

// Validate checks that the message can be transmitted.
func (m *Message) Validate() error {
	if m.Path == "" {
		return ErrEmptyPath
	}
	if m.Path[0] != '/' {
		return ErrInvalidPath
	}
	if !m.Payload.Kind.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidKind, m.Payload.Kind)
	}
	return nil
}

// String formats the message for logs.
func (m Message) String() string {
	return fmt.Sprintf("%s[%d] %s", m.Path, m.SlotID, m.Payload)
}

// Sink accepts outbound messages. Send is fire-and-forget: it must not block
// the caller and reports no delivery status. Implementations must be safe for
// concurrent use.
type Sink interface {
	Send(msg Message)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(msg Message)

// Send calls f(msg).
func (f SinkFunc) Send(msg Message) { f(msg) }
