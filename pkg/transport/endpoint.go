package transport

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

// Endpoint is the per-slot address resource and the wire.Sink an observer
// writes to. Close releases it; later sends are dropped.
type Endpoint struct {
	d      *Dispatcher
	slotID uint32
	host   string
	port   int
	client Client
	closed atomic.Bool
}

// Send queues msg without blocking.
func (e *Endpoint) Send(msg wire.Message) {
	e.d.enqueue(e, msg)
}

// Close unregisters the endpoint. It is safe to call more than once.
func (e *Endpoint) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.d.unregister(e)
	return nil
}

// Closed reports whether Close has been called.
func (e *Endpoint) Closed() bool {
	return e.closed.Load()
}

// SlotID returns the slot the endpoint was opened for.
func (e *Endpoint) SlotID() uint32 {
	return e.slotID
}

// Addr returns host:port.
func (e *Endpoint) Addr() string {
	return net.JoinHostPort(e.host, strconv.Itoa(e.port))
}

// ParseRemoteURL extracts host and port from an osc.udp://host:port/ URL.
// A bare host:port is accepted as well.
func ParseRemoteURL(raw string) (string, int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0, fmt.Errorf("%w: empty", ErrInvalidRemoteURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "osc.udp://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidRemoteURL, err)
	}
	switch u.Scheme {
	case "osc.udp", "udp":
	default:
		return "", 0, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRemoteURL, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("%w: missing host in %q", ErrInvalidRemoteURL, raw)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("%w: bad port in %q", ErrInvalidRemoteURL, raw)
	}
	return host, port, nil
}
