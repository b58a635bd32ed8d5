package transport

import (
	"github.com/hypebeast/go-osc/osc"

	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

// Client sends OSC packets to one remote address.
// Implemented by *osc.Client.
type Client interface {
	Send(packet osc.Packet) error
}

// DialFunc creates a Client for host:port.
type DialFunc func(host string, port int) Client

// DialUDP is the default DialFunc.
func DialUDP(host string, port int) Client {
	return osc.NewClient(host, port)
}

// Compile-time interface satisfaction checks.
var (
	_ Client    = (*osc.Client)(nil)
	_ wire.Sink = (*Endpoint)(nil)
)
