package feedback

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oscstrip/oscstrip-go/pkg/log"
	"github.com/oscstrip/oscstrip-go/pkg/model"
	"github.com/oscstrip/oscstrip-go/pkg/subscription"
	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

// State is the binding state of an Observer.
type State uint8

const (
	// StateUnbound means no strip is shown; the slot displays the cleared burst.
	StateUnbound State = iota
	// StateLinkWait means the slot shows link-set placeholder text.
	StateLinkWait
	// StateBound means the slot mirrors a strip.
	StateBound
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnbound:
		return "UNBOUND"
	case StateLinkWait:
		return "LINK_WAIT"
	case StateBound:
		return "BOUND"
	default:
		return "UNKNOWN"
	}
}

const (
	tickWaitPolls    = 10
	tickWaitInterval = 100 * time.Microsecond
)

// unsent marks a cache entry that must be transmitted on next comparison.
// NaN never compares equal, so it is distinct from every legal value.
var unsent = math.NaN()

// snapshot holds the last values sent for continuously diffed parameters.
type snapshot struct {
	gain   float64
	trim   float64
	meter  float64
	signal int8 // -1 unknown, 0 absent, 1 present
}

func (s *snapshot) reset() {
	s.gain = unsent
	s.trim = unsent
	s.meter = unsent
	s.signal = -1
}

// Option configures an Observer.
type Option func(*Observer)

// WithLogger sets the operational logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Observer) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCapture records state transitions to a capture logger under sessionID.
func WithCapture(capture log.Logger, sessionID string) Option {
	return func(o *Observer) {
		o.capture = capture
		o.sessionID = sessionID
	}
}

// Observer mirrors one strip onto one surface slot.
//
// Engine callbacks and Tick may arrive on any goroutine. While a rebind is in
// progress both are suppressed; otherwise they serialize on an internal lock,
// so messages for one slot leave in a consistent order.
type Observer struct {
	slotID    uint32
	cfg       Config
	sink      wire.Sink
	logger    *slog.Logger
	capture   log.Logger
	sessionID string

	mu              sync.Mutex
	strip           model.Strip
	state           State
	subs            *subscription.Set
	snap            snapshot
	automation      model.AutomationState
	gainNameTimeout int
	linkReadiness   uint32
	expand          uint32
	expandKnown     bool
	closed          bool

	// dropped is set when the strip went away and nothing has been sent
	// since, so binding nil still clears the slot.
	dropped bool

	initializing atomic.Bool
	tickBusy     atomic.Bool
}

// New creates an observer for slotID and brings it into its initial state:
// link-wait when cfg.LinkReadiness is non-zero, cleared when strip is nil,
// bound otherwise. The expand indicator is sent last.
func New(slotID uint32, strip model.Strip, cfg Config, sink wire.Sink, opts ...Option) *Observer {
	o := &Observer{
		slotID: slotID,
		cfg:    cfg,
		sink:   sink,
		logger: slog.Default(),
		subs:   subscription.NewSet(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.snap.reset()

	if cfg.LinkReadiness > 0 {
		o.mu.Lock()
		o.strip = strip
		o.enterLinkWait(cfg.LinkReadiness)
		o.mu.Unlock()
	} else {
		o.Bind(strip, true)
	}

	if cfg.ExpandEnabled {
		o.SetExpand(cfg.Expand)
	} else {
		o.SetExpand(0)
	}
	return o
}

// SlotID returns the slot this observer feeds.
func (o *Observer) SlotID() uint32 { return o.slotID }

// Config returns the configuration the observer was built with.
func (o *Observer) Config() Config { return o.cfg }

// State returns the current binding state.
func (o *Observer) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Strip returns the strip the observer holds, or nil. In link-wait this is
// the strip that will be bound when the link completes.
func (o *Observer) Strip() model.Strip {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.strip
}

// Subscriptions returns the number of live engine subscriptions.
func (o *Observer) Subscriptions() int {
	return o.subs.Count()
}

// Initializing reports whether callbacks and ticks are currently suppressed.
func (o *Observer) Initializing() bool {
	return o.initializing.Load()
}

// Bind points the observer at strip and sends its full state. A nil strip
// clears the slot. Binding the strip that is already bound is a no-op unless
// force is set. During link-wait the strip is only remembered.
func (o *Observer) Bind(strip model.Strip, force bool) {
	o.initializing.Store(true)
	o.waitForTick()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.bind(strip, force)
}

func (o *Observer) bind(strip model.Strip, force bool) {
	o.initializing.Store(true)

	if o.linkReadiness > 0 {
		o.strip = strip
		o.initializing.Store(false)
		return
	}

	// The outgoing strip's selection is re-sent so the surface never keeps a
	// stale highlight across a rebind.
	if o.state == StateBound {
		o.sendSelect()
	}

	if strip == o.strip && !force && !o.dropped {
		// Gain and trim go out again on their next change even if the
		// value is the same.
		o.snap.gain = unsent
		o.snap.trim = unsent
		o.initializing.Store(false)
		return
	}

	o.subs.DropAll()
	o.strip = strip
	o.dropped = false
	if strip == nil {
		o.setState(StateUnbound, "bind nil")
		o.clear()
		o.initializing.Store(false)
		return
	}

	o.snap.reset()
	o.automation = model.AutomationOff
	o.gainNameTimeout = 0
	o.setState(StateBound, "bind")
	o.subscribe(strip)

	o.initializing.Store(false)
	o.tick()
}

// Unbind detaches the observer from its strip without sending anything.
// Afterwards the observer is idle until the next Bind.
func (o *Observer) Unbind() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unbind()
}

// dropStrip handles strip's drop-references notification. A notification
// from a strip that is no longer bound is ignored.
func (o *Observer) dropStrip(strip model.Strip) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.strip != strip {
		return
	}
	o.unbind()
}

func (o *Observer) unbind() {
	o.initializing.Store(true)
	o.subs.DropAll()
	o.strip = nil
	o.snap.reset()
	o.gainNameTimeout = 0
	if o.state == StateBound {
		o.dropped = true
		o.setState(StateUnbound, "strip dropped")
	}
}

// Clear detaches from any strip and sends the cleared burst.
func (o *Observer) Clear() {
	o.initializing.Store(true)
	o.waitForTick()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.subs.DropAll()
	o.strip = nil
	o.dropped = false
	o.setState(StateUnbound, "clear")
	o.clear()
	o.initializing.Store(false)
}

// SetLinkReadiness enters link-wait with n surfaces missing, or, with n == 0,
// leaves it and force-binds the remembered strip.
func (o *Observer) SetLinkReadiness(n uint32) {
	o.initializing.Store(true)
	o.waitForTick()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if n > 0 {
		o.enterLinkWait(n)
		return
	}
	o.linkReadiness = 0
	if o.state == StateLinkWait {
		o.setState(StateUnbound, "link complete")
	}
	o.bind(o.strip, true)
}

func (o *Observer) enterLinkWait(n uint32) {
	o.initializing.Store(true)
	o.linkReadiness = n
	o.subs.DropAll()
	o.setState(StateLinkWait, "link wait")
	o.clear()
	if text, ok := placeholder(o.slotID, n); ok {
		o.send(wire.PathName, wire.Text(text))
	}
	o.initializing.Store(false)
}

// SetExpand records which slot is expanded and, on change, tells the
// surface whether it is this one. It does not depend on the binding.
func (o *Observer) SetExpand(selected uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.expandKnown && selected == o.expand {
		return
	}
	o.expand = selected
	o.expandKnown = true
	o.send(wire.PathExpand, wire.Bool(selected == o.slotID))
}

// Tick samples the meter and refreshes values that move without
// notifications. It returns immediately while a rebind is in progress or
// when no strip is bound.
func (o *Observer) Tick() {
	if o.initializing.Load() {
		return
	}
	o.tickBusy.Store(true)
	defer o.tickBusy.Store(false)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.initializing.Load() || o.state != StateBound {
		return
	}
	o.tick()
}

// Close drops every subscription and releases the sink when it holds a
// resource. The observer sends nothing afterwards.
func (o *Observer) Close() error {
	o.initializing.Store(true)
	o.waitForTick()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.subs.DropAll()
	o.strip = nil
	o.setState(StateUnbound, "close")
	o.closed = true

	if closer, ok := o.sink.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// waitForTick gives an in-flight Tick a bounded chance to finish before a
// rebind takes the lock. The lock still serializes them if it does not.
func (o *Observer) waitForTick() {
	for i := 0; i < tickWaitPolls && o.tickBusy.Load(); i++ {
		time.Sleep(tickWaitInterval)
	}
}

func (o *Observer) setState(s State, reason string) {
	if s == o.state {
		return
	}
	old := o.state
	o.state = s
	o.logger.Debug("slot state", "slot", o.slotID, "from", old.String(), "to", s.String(), "reason", reason)
	if o.capture != nil {
		o.capture.Log(log.Event{
			Timestamp: time.Now(),
			SessionID: o.sessionID,
			Direction: log.DirectionOut,
			Layer:     log.LayerFeedback,
			Category:  log.CategoryState,
			SlotID:    o.slotID,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntitySlot,
				OldState: old.String(),
				NewState: s.String(),
				Reason:   reason,
			},
		})
	}
}
