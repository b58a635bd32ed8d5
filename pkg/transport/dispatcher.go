package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oscstrip/oscstrip-go/pkg/log"
	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

// DefaultQueueSize is the number of messages buffered between observers
// and the delivery goroutine.
const DefaultQueueSize = 1024

var (
	// ErrDispatcherClosed is returned when opening an endpoint on a closed dispatcher.
	ErrDispatcherClosed = errors.New("dispatcher closed")

	// ErrInvalidRemoteURL is returned for a remote address that cannot be parsed.
	ErrInvalidRemoteURL = errors.New("invalid remote url")
)

// Config configures a Dispatcher.
type Config struct {
	// QueueSize bounds the outbound queue (default: DefaultQueueSize).
	QueueSize int

	// IDInPath appends the slot id to the path instead of sending it as the
	// first argument.
	IDInPath bool

	// Dial creates per-endpoint clients (default: DialUDP).
	Dial DialFunc

	// Logger receives delivery failures (default: slog.Default()).
	Logger *slog.Logger

	// Capture, when set, records every delivery, drop and endpoint change.
	Capture   log.Logger
	SessionID string
}

// Stats are cumulative delivery counters.
type Stats struct {
	Queued  uint64
	Sent    uint64
	Dropped uint64
	Failed  uint64
}

type outbound struct {
	ep  *Endpoint
	msg wire.Message
}

// Dispatcher queues feedback messages and delivers them from a single goroutine.
type Dispatcher struct {
	cfg    Config
	logger *slog.Logger
	queue  chan outbound

	mu        sync.RWMutex
	endpoints map[*Endpoint]struct{}
	closed    bool
	done      chan struct{}

	queued  atomic.Uint64
	sent    atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewDispatcher creates a dispatcher. Nothing is delivered until Run is called.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Dial == nil {
		cfg.Dial = DialUDP
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		cfg:       cfg,
		logger:    logger,
		queue:     make(chan outbound, cfg.QueueSize),
		endpoints: make(map[*Endpoint]struct{}),
		done:      make(chan struct{}),
	}
}

// Endpoint opens an endpoint for slotID sending to remoteURL.
func (d *Dispatcher) Endpoint(remoteURL string, slotID uint32) (*Endpoint, error) {
	host, port, err := ParseRemoteURL(remoteURL)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDispatcherClosed
	}

	ep := &Endpoint{
		d:      d,
		slotID: slotID,
		host:   host,
		port:   port,
		client: d.cfg.Dial(host, port),
	}
	d.endpoints[ep] = struct{}{}
	d.captureState(ep, "", "OPEN")
	return ep, nil
}

// Endpoints returns the number of open endpoints.
func (d *Dispatcher) Endpoints() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.endpoints)
}

// Stats returns a snapshot of the delivery counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Queued:  d.queued.Load(),
		Sent:    d.sent.Load(),
		Dropped: d.dropped.Load(),
		Failed:  d.failed.Load(),
	}
}

// Run delivers queued messages until ctx ends or Close is called. It
// returns ctx.Err() in the first case and nil in the second. Messages still
// queued when Run returns are discarded.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.done:
			return nil
		case out := <-d.queue:
			d.deliver(out)
		}
	}
}

// Close stops Run and closes every endpoint. Further sends are dropped.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.done)
	eps := make([]*Endpoint, 0, len(d.endpoints))
	for ep := range d.endpoints {
		eps = append(eps, ep)
	}
	d.mu.Unlock()

	for _, ep := range eps {
		_ = ep.Close()
	}
	return nil
}

func (d *Dispatcher) enqueue(ep *Endpoint, msg wire.Message) {
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	if closed || ep.closed.Load() {
		d.drop(ep, msg)
		return
	}

	select {
	case d.queue <- outbound{ep: ep, msg: msg}:
		d.queued.Add(1)
	default:
		d.drop(ep, msg)
	}
}

// drop counts a discarded message. Only the first drop is logged; Stats
// carries the total.
func (d *Dispatcher) drop(ep *Endpoint, msg wire.Message) {
	if d.dropped.Add(1) == 1 {
		d.logger.Warn("feedback dropped", "slot", msg.SlotID, "path", msg.Path, "remote", ep.Addr())
	}
	d.captureMessage(ep.Addr(), msg, true)
}

func (d *Dispatcher) deliver(out outbound) {
	var targets []*Endpoint
	if out.msg.Routing == wire.RoutingBroadcast {
		targets = d.broadcastTargets()
	} else if !out.ep.closed.Load() {
		targets = []*Endpoint{out.ep}
	}
	if len(targets) == 0 {
		d.drop(out.ep, out.msg)
		return
	}

	packet := Encode(out.msg, d.cfg.IDInPath)
	for _, ep := range targets {
		if err := ep.client.Send(packet); err != nil {
			d.failed.Add(1)
			d.logger.Warn("feedback send failed", "remote", ep.Addr(), "path", packet.Address, "error", err)
			d.captureError(ep.Addr(), out.msg.SlotID, err)
			continue
		}
		d.sent.Add(1)
		d.captureMessage(ep.Addr(), out.msg, false)
	}
}

// broadcastTargets returns one open endpoint per distinct remote address.
func (d *Dispatcher) broadcastTargets() []*Endpoint {
	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[string]bool, len(d.endpoints))
	targets := make([]*Endpoint, 0, len(d.endpoints))
	for ep := range d.endpoints {
		addr := ep.Addr()
		if seen[addr] {
			continue
		}
		seen[addr] = true
		targets = append(targets, ep)
	}
	return targets
}

func (d *Dispatcher) unregister(ep *Endpoint) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.endpoints[ep]; !ok {
		return
	}
	delete(d.endpoints, ep)
	d.captureState(ep, "OPEN", "CLOSED")
}

func (d *Dispatcher) captureMessage(remote string, msg wire.Message, dropped bool) {
	if d.cfg.Capture == nil {
		return
	}
	d.cfg.Capture.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  d.cfg.SessionID,
		Direction:  log.DirectionOut,
		Layer:      log.LayerTransport,
		Category:   log.CategoryMessage,
		SlotID:     msg.SlotID,
		RemoteAddr: remote,
		Message: &log.MessageEvent{
			Path:    msg.Path,
			Payload: msg.Payload,
			Routing: msg.Routing,
			Dropped: dropped,
		},
	})
}

func (d *Dispatcher) captureError(remote string, slotID uint32, err error) {
	if d.cfg.Capture == nil {
		return
	}
	d.cfg.Capture.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  d.cfg.SessionID,
		Direction:  log.DirectionOut,
		Layer:      log.LayerTransport,
		Category:   log.CategoryError,
		SlotID:     slotID,
		RemoteAddr: remote,
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: err.Error(),
			Context: "send",
		},
	})
}

func (d *Dispatcher) captureState(ep *Endpoint, from, to string) {
	if d.cfg.Capture == nil {
		return
	}
	d.cfg.Capture.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  d.cfg.SessionID,
		Layer:      log.LayerTransport,
		Category:   log.CategoryState,
		SlotID:     ep.slotID,
		RemoteAddr: ep.Addr(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityEndpoint,
			OldState: from,
			NewState: to,
		},
	})
}
