// Package wire defines the feedback messages a surface slot emits and the
// Sink that transmits them.
//
// # Messages
//
// A Message carries a fixed string path (see the Path constants), the slot
// id of the surface position it describes, a typed payload and a routing
// hint. Payloads are floats, integers or text; booleans travel as 0.0/1.0
// floats or as 0/1 integers depending on the path.
//
// # Sinks
//
// Sink is the only outbound dependency of a feedback observer. Sends are
// fire-and-forget: a Sink never blocks its caller and never reports delivery
// failure. The transport package provides the OSC implementation.
//
// # CBOR Encoding
//
// Messages encode to CBOR with integer keys for compact capture files.
package wire
