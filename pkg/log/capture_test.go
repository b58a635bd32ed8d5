package log

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

type closingSink struct {
	sent   []wire.Message
	closed int
	err    error
}

func (s *closingSink) Send(msg wire.Message) { s.sent = append(s.sent, msg) }
func (s *closingSink) Close() error { s.closed++; return s.err }

func TestCaptureSinkRecordsAndForwards(t *testing.T) {
	rec := &recordingLogger{}
	next := &closingSink{}
	sink := NewCaptureSink(next, rec, "sess")

	msg := wire.Message{Path: wire.PathSolo, SlotID: 4, Payload: wire.Float(1), Routing: wire.RoutingBroadcast}
	sink.Send(msg)

	if len(next.sent) != 1 || next.sent[0] != msg {
		t.Fatalf("forwarded = %v", next.sent)
	}
	if len(rec.events) != 1 {
		t.Fatalf("captured %d events, want 1", len(rec.events))
	}
	e := rec.events[0]
	if e.SessionID != "sess" || e.SlotID != 4 || e.Category != CategoryMessage || e.Direction != DirectionOut {
		t.Errorf("unexpected envelope: %+v", e)
	}
	if e.Message.Path != wire.PathSolo || e.Message.Routing != wire.RoutingBroadcast {
		t.Errorf("unexpected message: %+v", e.Message)
	}
}

func TestCaptureSinkClosePropagates(t *testing.T) {
	next := &closingSink{err: errors.New("boom")}
	sink := NewCaptureSink(next, nil, "sess")
	if err := sink.Close(); err == nil || err.Error() != "boom" {
		t.Errorf("Close err = %v", err)
	}
	if next.closed != 1 {
		t.Errorf("closed = %d", next.closed)
	}

	bare := NewCaptureSink(wire.SinkFunc(func(wire.Message) {}), nil, "sess")
	if err := bare.Close(); err != nil {
		t.Errorf("Close on non-closer: %v", err)
	}
}

func TestCaptureSinkWithoutNext(t *testing.T) {
	rec := &recordingLogger{}
	sink := NewCaptureSink(nil, rec, "sess")
	sink.Send(wire.Message{Path: wire.PathName, Payload: wire.Text("x")})
	if len(rec.events) != 1 {
		t.Errorf("captured %d events", len(rec.events))
	}
}

func TestNewSessionIDIsUUID(t *testing.T) {
	id := NewSessionID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("NewSessionID() = %q: %v", id, err)
	}
	if id == NewSessionID() {
		t.Error("session IDs must differ")
	}
}
