package log

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

func TestMessageEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 2, 9, 30, 0, 123456789, time.UTC)
	original := Event{
		Timestamp: ts,
		SessionID: "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Direction: DirectionOut,
		Layer:     LayerFeedback,
		Category:  CategoryMessage,
		SlotID:    3,
		Message: &MessageEvent{
			Path:    wire.PathFader,
			Payload: wire.Float(0.75),
			Routing: wire.RoutingBroadcast,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(ts) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, ts)
	}
	if decoded.SessionID != original.SessionID {
		t.Errorf("SessionID: got %q, want %q", decoded.SessionID, original.SessionID)
	}
	if decoded.SlotID != 3 {
		t.Errorf("SlotID: got %d, want 3", decoded.SlotID)
	}
	if decoded.Message == nil {
		t.Fatal("Message payload lost")
	}
	if decoded.Message.Path != wire.PathFader {
		t.Errorf("Path: got %q", decoded.Message.Path)
	}
	if decoded.Message.Payload != wire.Float(0.75) {
		t.Errorf("Payload: got %v", decoded.Message.Payload)
	}
	if decoded.Message.Routing != wire.RoutingBroadcast {
		t.Errorf("Routing: got %v", decoded.Message.Routing)
	}
	if decoded.StateChange != nil || decoded.Error != nil {
		t.Error("unexpected payloads after decode")
	}
}

func TestStreamingEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for i, state := range []string{"LINK_WAIT", "BOUND", "UNBOUND"} {
		err := enc.Encode(Event{
			SessionID:   "s",
			Category:    CategoryState,
			SlotID:      uint32(i + 1),
			StateChange: &StateChangeEvent{Entity: StateEntitySlot, NewState: state},
		})
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	dec := NewDecoder(&buf)
	var states []string
	for {
		var e Event
		if err := dec.Decode(&e); err == io.EOF {
			break
		} else if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		states = append(states, e.StateChange.NewState)
	}
	if len(states) != 3 || states[1] != "BOUND" {
		t.Errorf("states = %v", states)
	}
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xff, 0x00}); err == nil {
		t.Error("expected error for invalid CBOR")
	}
}
