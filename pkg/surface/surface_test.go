package surface

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscstrip/oscstrip-go/pkg/feedback"
	"github.com/oscstrip/oscstrip-go/pkg/log"
	"github.com/oscstrip/oscstrip-go/pkg/model"
	"github.com/oscstrip/oscstrip-go/pkg/transport"
	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

type nopClient struct{}

func (nopClient) Send(osc.Packet) error { return nil }

type recorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recorder) Log(e log.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) messages(path string) []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []log.Event
	for _, e := range r.events {
		if e.Message != nil && e.Message.Path == path {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

func newTestSurface(t *testing.T, fcfg feedback.Config) (*Surface, *transport.Dispatcher, *recorder) {
	t.Helper()
	d := transport.NewDispatcher(transport.Config{
		Dial: func(string, int) transport.Client { return nopClient{} },
	})
	rec := &recorder{}
	s, err := New(Config{RemoteURL: "osc.udp://127.0.0.1:8000/", Feedback: fcfg, TickInterval: time.Millisecond}, d,
		WithCapture(rec, "test"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, d, rec
}

func TestNewValidates(t *testing.T) {
	d := transport.NewDispatcher(transport.Config{})

	_, err := New(Config{RemoteURL: "osc.tcp://host:1/"}, d)
	assert.ErrorIs(t, err, transport.ErrInvalidRemoteURL)

	_, err = New(Config{RemoteURL: "host:8000", Feedback: feedback.Config{GainMode: 5}}, d)
	assert.ErrorIs(t, err, feedback.ErrInvalidGainMode)

	s, err := New(Config{RemoteURL: "host:8000"}, d)
	require.NoError(t, err)
	assert.Equal(t, DefaultTickInterval, s.cfg.TickInterval)
}

func TestAssignCreatesThenRebinds(t *testing.T) {
	s, d, _ := newTestSurface(t, feedback.Config{Flags: feedback.FlagButtons})
	a, b := model.NewChannel("A"), model.NewChannel("B")

	require.NoError(t, s.Assign(1, a, false))
	obs, err := s.Observer(1)
	require.NoError(t, err)
	assert.Equal(t, feedback.StateBound, obs.State())
	assert.Equal(t, 1, d.Endpoints())

	require.NoError(t, s.Assign(1, b, false))
	again, err := s.Observer(1)
	require.NoError(t, err)
	assert.Same(t, obs, again)
	assert.Same(t, b, again.Strip())
	assert.Zero(t, a.Subscribers())
	assert.Equal(t, 1, d.Endpoints())

	assert.ErrorIs(t, s.Assign(0, a, false), ErrInvalidSlot)
}

func TestAddRejectsDuplicate(t *testing.T) {
	s, _, _ := newTestSurface(t, feedback.Config{})
	require.NoError(t, s.Add(2, nil))
	assert.ErrorIs(t, s.Add(2, nil), ErrSlotExists)
	assert.Equal(t, []uint32{2}, s.Slots())
}

func TestReleaseClosesObserverAndEndpoint(t *testing.T) {
	s, d, _ := newTestSurface(t, feedback.Config{Flags: feedback.FlagButtons | feedback.FlagLevels})
	ch := model.NewChannel("Vox")
	require.NoError(t, s.Assign(3, ch, false))
	require.NotZero(t, ch.Subscribers())

	require.NoError(t, s.Release(3))
	assert.Zero(t, ch.Subscribers())
	assert.Zero(t, d.Endpoints())
	assert.Empty(t, s.Slots())

	assert.ErrorIs(t, s.Release(3), ErrSlotNotFound)
	_, err := s.Observer(3)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestAssignAllClearsSlotsPastTheEnd(t *testing.T) {
	s, _, rec := newTestSurface(t, feedback.Config{Flags: feedback.FlagButtons})
	require.NoError(t, s.Add(3, model.NewChannel("Old")))

	strips := []model.Strip{model.NewChannel("One"), model.NewChannel("Two")}
	require.NoError(t, s.AssignAll(strips, false))

	assert.Equal(t, []uint32{1, 2, 3}, s.Slots())
	for slot, want := range map[uint32]feedback.State{1: feedback.StateBound, 2: feedback.StateBound, 3: feedback.StateUnbound} {
		obs, err := s.Observer(slot)
		require.NoError(t, err)
		assert.Equal(t, want, obs.State(), "slot %d", slot)
	}

	names := rec.messages(wire.PathName)
	last := names[len(names)-1]
	assert.Equal(t, uint32(3), last.SlotID)
	assert.Equal(t, wire.Text(" "), last.Message.Payload)
}

func TestSetExpandFansOut(t *testing.T) {
	s, _, rec := newTestSurface(t, feedback.Config{})
	require.NoError(t, s.Add(1, nil))
	require.NoError(t, s.Add(2, nil))
	rec.reset()

	s.SetExpand(2)
	expands := rec.messages(wire.PathExpand)
	require.Len(t, expands, 2)
	assert.Equal(t, wire.Float(0), expands[0].Message.Payload)
	assert.Equal(t, wire.Float(1), expands[1].Message.Payload)

	// A slot opened later starts with the current selection.
	require.NoError(t, s.Release(2))
	rec.reset()
	require.NoError(t, s.Add(2, nil))
	expands = rec.messages(wire.PathExpand)
	require.NotEmpty(t, expands)
	assert.Equal(t, wire.Float(1), expands[len(expands)-1].Message.Payload)
}

func TestSetLinkReadinessFansOut(t *testing.T) {
	s, _, rec := newTestSurface(t, feedback.Config{Flags: feedback.FlagButtons})
	strips := []model.Strip{model.NewChannel("One"), model.NewChannel("Two")}
	require.NoError(t, s.AssignAll(strips, false))
	rec.reset()

	s.SetLinkReadiness(4)
	for _, slot := range s.Slots() {
		obs, err := s.Observer(slot)
		require.NoError(t, err)
		assert.Equal(t, feedback.StateLinkWait, obs.State())
	}
	names := rec.messages(wire.PathName)
	require.NotEmpty(t, names)
	assert.Equal(t, wire.Text("4"), names[len(names)-1].Message.Payload)

	// New slots join in link-wait.
	require.NoError(t, s.Add(5, model.NewChannel("Five")))
	obs, err := s.Observer(5)
	require.NoError(t, err)
	assert.Equal(t, feedback.StateLinkWait, obs.State())

	s.SetLinkReadiness(0)
	assert.Equal(t, feedback.StateBound, obs.State())
}

func TestTickRunsInSlotOrder(t *testing.T) {
	s, _, rec := newTestSurface(t, feedback.Config{Flags: feedback.FlagMeter})
	var meters []*model.PeakMeter
	for _, slot := range []uint32{3, 1, 2} {
		ch := model.NewChannel("ch", model.WithMeter())
		meters = append(meters, ch.Meter())
		require.NoError(t, s.Assign(slot, ch, false))
	}
	rec.reset()

	for _, m := range meters {
		m.Set(-12)
	}
	s.Tick()

	var order []uint32
	for _, e := range rec.messages(wire.PathMeter) {
		order = append(order, e.SlotID)
	}
	assert.Equal(t, []uint32{1, 2, 3}, order)
	assert.Equal(t, uint64(1), s.Ticks())
}

func TestRunTicksUntilCancelled(t *testing.T) {
	s, _, _ := newTestSurface(t, feedback.Config{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return s.Ticks() >= 3 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestCloseReleasesAllSlots(t *testing.T) {
	s, d, _ := newTestSurface(t, feedback.Config{Flags: feedback.FlagButtons})
	a, b := model.NewChannel("A"), model.NewChannel("B")
	require.NoError(t, s.AssignAll([]model.Strip{a, b}, false))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Zero(t, a.Subscribers())
	assert.Zero(t, b.Subscribers())
	assert.Zero(t, d.Endpoints())
	assert.ErrorIs(t, s.Assign(1, a, false), ErrClosed)
	assert.ErrorIs(t, s.AssignAll(nil, false), ErrClosed)

	s.Tick()
	assert.Zero(t, s.Ticks())
}
