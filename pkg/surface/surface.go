package surface

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oscstrip/oscstrip-go/pkg/feedback"
	"github.com/oscstrip/oscstrip-go/pkg/log"
	"github.com/oscstrip/oscstrip-go/pkg/model"
	"github.com/oscstrip/oscstrip-go/pkg/transport"
	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

// DefaultTickInterval is used when Config.TickInterval is zero.
const DefaultTickInterval = 100 * time.Millisecond

var (
	// ErrSlotExists is returned by Add for a slot that already has an observer.
	ErrSlotExists = errors.New("slot already exists")

	// ErrSlotNotFound is returned for a slot without an observer.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrInvalidSlot is returned for slot 0. Slots are numbered from 1.
	ErrInvalidSlot = errors.New("invalid slot")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("surface closed")
)

// Config describes one remote surface.
type Config struct {
	// RemoteURL is where feedback is sent, e.g. osc.udp://host:port/.
	RemoteURL string

	// Feedback is the per-slot observer configuration. Expand and
	// LinkReadiness are the initial surface-wide values.
	Feedback feedback.Config

	// TickInterval is the period of Run (default: DefaultTickInterval).
	TickInterval time.Duration
}

// Option configures a Surface.
type Option func(*Surface)

// WithLogger sets the operational logger for the surface and its observers.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Surface) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCapture records every observer message and state change.
func WithCapture(capture log.Logger, sessionID string) Option {
	return func(s *Surface) {
		s.capture = capture
		s.sessionID = sessionID
	}
}

// Surface owns the observers of one control surface. All methods are
// serialized, so ticks for one observer never overlap.
type Surface struct {
	cfg        Config
	dispatcher *transport.Dispatcher
	logger     *slog.Logger
	capture    log.Logger
	sessionID  string

	mu            sync.Mutex
	slots         map[uint32]*feedback.Observer
	order         []uint32
	expand        uint32
	expandSet     bool
	linkReadiness uint32
	closed        bool

	ticks atomic.Uint64
}

// New validates cfg and creates an empty surface sending through d.
func New(cfg Config, d *transport.Dispatcher, opts ...Option) (*Surface, error) {
	if err := cfg.Feedback.Validate(); err != nil {
		return nil, fmt.Errorf("surface config: %w", err)
	}
	if _, _, err := transport.ParseRemoteURL(cfg.RemoteURL); err != nil {
		return nil, fmt.Errorf("surface config: %w", err)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}

	s := &Surface{
		cfg:           cfg,
		dispatcher:    d,
		logger:        slog.Default(),
		slots:         make(map[uint32]*feedback.Observer),
		expand:        cfg.Feedback.Expand,
		expandSet:     cfg.Feedback.ExpandEnabled,
		linkReadiness: cfg.Feedback.LinkReadiness,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Assign shows strip in slot. The slot's observer is created on first use
// and rebound afterwards; force re-sends everything even when the strip is
// unchanged. A nil strip clears the slot.
func (s *Surface) Assign(slot uint32, strip model.Strip, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(slot); err != nil {
		return err
	}

	if obs, ok := s.slots[slot]; ok {
		obs.Bind(strip, force)
		return nil
	}
	return s.open(slot, strip)
}

// Add creates the observer for a new slot.
func (s *Surface) Add(slot uint32, strip model.Strip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(slot); err != nil {
		return err
	}
	if _, ok := s.slots[slot]; ok {
		return fmt.Errorf("%w: %d", ErrSlotExists, slot)
	}
	return s.open(slot, strip)
}

// AssignAll rebinds every existing slot n to strips[n-1], clearing slots
// past the end of strips. Slots listed in strips that do not exist yet are
// created.
func (s *Surface) AssignAll(strips []model.Strip, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	fresh := make(map[uint32]bool)
	for i, strip := range strips {
		slot := uint32(i + 1)
		if _, ok := s.slots[slot]; ok {
			continue
		}
		if err := s.open(slot, strip); err != nil {
			return err
		}
		fresh[slot] = true
	}
	for _, slot := range s.order {
		if fresh[slot] {
			continue
		}
		var strip model.Strip
		if int(slot) <= len(strips) {
			strip = strips[slot-1]
		}
		s.slots[slot].Bind(strip, force)
	}
	return nil
}

// Release closes the slot's observer and its endpoint.
func (s *Surface) Release(slot uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obs, ok := s.slots[slot]
	if !ok {
		return fmt.Errorf("%w: %d", ErrSlotNotFound, slot)
	}
	delete(s.slots, slot)
	s.order = slices.DeleteFunc(s.order, func(n uint32) bool { return n == slot })
	return obs.Close()
}

// Observer returns the observer for slot.
func (s *Surface) Observer(slot uint32) (*feedback.Observer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obs, ok := s.slots[slot]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrSlotNotFound, slot)
	}
	return obs, nil
}

// Slots returns the open slots in ascending order.
func (s *Surface) Slots() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.order)
}

// SetExpand marks slot selected as expanded on every observer.
func (s *Surface) SetExpand(selected uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expand = selected
	s.expandSet = true
	for _, slot := range s.order {
		s.slots[slot].SetExpand(selected)
	}
}

// Expand returns the expanded slot, 0 when none is set.
func (s *Surface) Expand() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expandSet {
		return 0
	}
	return s.expand
}

// SetLinkReadiness tells every observer how many linked surfaces are
// still missing. Zero resumes normal feedback.
func (s *Surface) SetLinkReadiness(n uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.linkReadiness = n
	for _, slot := range s.order {
		s.slots[slot].SetLinkReadiness(n)
	}
}

// Tick ticks every observer once, in slot order.
func (s *Surface) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, slot := range s.order {
		s.slots[slot].Tick()
	}
	s.ticks.Add(1)
}

// Ticks returns how many times Tick has run.
func (s *Surface) Ticks() uint64 {
	return s.ticks.Load()
}

// Run calls Tick every TickInterval until ctx ends.
func (s *Surface) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Close releases every slot. Observers drop their subscriptions before their
// endpoints are closed.
func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, slot := range s.order {
		if err := s.slots[slot].Close(); err != nil {
			errs = append(errs, fmt.Errorf("slot %d: %w", slot, err))
		}
	}
	s.slots = make(map[uint32]*feedback.Observer)
	s.order = nil
	return errors.Join(errs...)
}

func (s *Surface) check(slot uint32) error {
	if s.closed {
		return ErrClosed
	}
	if slot == 0 {
		return ErrInvalidSlot
	}
	return nil
}

// open creates the observer for slot. Called with s.mu held.
func (s *Surface) open(slot uint32, strip model.Strip) error {
	ep, err := s.dispatcher.Endpoint(s.cfg.RemoteURL, slot)
	if err != nil {
		return fmt.Errorf("open slot %d: %w", slot, err)
	}

	var sink wire.Sink = ep
	opts := []feedback.Option{feedback.WithLogger(s.logger)}
	if s.capture != nil {
		sink = log.NewCaptureSink(ep, s.capture, s.sessionID)
		opts = append(opts, feedback.WithCapture(s.capture, s.sessionID))
	}

	cfg := s.cfg.Feedback
	cfg.Expand = s.expand
	cfg.ExpandEnabled = s.expandSet
	cfg.LinkReadiness = s.linkReadiness

	s.slots[slot] = feedback.New(slot, strip, cfg, sink, opts...)
	s.order = append(s.order, slot)
	slices.Sort(s.order)
	s.logger.Debug("slot opened", "slot", slot, "remote", ep.Addr())
	return nil
}
