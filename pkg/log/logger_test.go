package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

func TestMultiLoggerFansOut(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	multi := NewMultiLogger(a, nil, b)
	if multi.Len() != 2 {
		t.Fatalf("Len = %d, want 2", multi.Len())
	}

	multi.Log(Event{SessionID: "x"})
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("a=%d b=%d", len(a.events), len(b.events))
	}
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Log(Event{Message: &MessageEvent{Path: wire.PathName}})
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(Event{
		SessionID: "s1",
		Direction: DirectionOut,
		Layer:     LayerTransport,
		Category:  CategoryMessage,
		SlotID:    2,
		Message:   &MessageEvent{Path: wire.PathMeter, Payload: wire.Int(255), Dropped: true},
	})
	adapter.Log(Event{
		Category:    CategoryState,
		StateChange: &StateChangeEvent{Entity: StateEntitySlot, OldState: "UNBOUND", NewState: "BOUND", Reason: "assign"},
	})
	adapter.Log(Event{
		Category: CategoryError,
		Error:    &ErrorEventData{Layer: LayerTransport, Message: "refused", Context: "send"},
	})

	out := buf.String()
	for _, want := range []string{
		"path=/strip/meter", "value=255", "dropped=true", "slot=2",
		"new_state=BOUND", "reason=assign",
		"error_msg=refused", "error_layer=TRANSPORT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
