package mock_test

import (
	"testing"

	"github.com/oscstrip/oscstrip-go/internal/testharness/mock"
	"github.com/oscstrip/oscstrip-go/pkg/model"
	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

func TestRecordingSink(t *testing.T) {
	sink := mock.NewRecordingSink()
	var hooked int
	sink.OnSend = func(wire.Message) { hooked++ }

	sink.Send(wire.Message{Path: wire.PathMute, Payload: wire.Float(1)})
	sink.Send(wire.Message{Path: wire.PathName, Payload: wire.Text("Vox")})
	sink.Send(wire.Message{Path: wire.PathMute, Payload: wire.Float(0)})

	if sink.Len() != 3 || hooked != 3 {
		t.Fatalf("Len = %d, hooked = %d", sink.Len(), hooked)
	}
	if got := len(sink.ByPath(wire.PathMute)); got != 2 {
		t.Errorf("ByPath(mute) = %d, want 2", got)
	}
	last, ok := sink.Last(wire.PathMute)
	if !ok || last.Payload != wire.Float(0) {
		t.Errorf("Last(mute) = %v, %v", last, ok)
	}
	if _, ok := sink.Last(wire.PathPan); ok {
		t.Error("Last(pan) should be absent")
	}
	paths := sink.Paths()
	if paths[1] != wire.PathName {
		t.Errorf("Paths = %v", paths)
	}

	sink.Reset()
	if sink.Len() != 0 {
		t.Error("Reset did not clear messages")
	}
	_ = sink.Close()
	if sink.Closed() != 1 {
		t.Errorf("Closed = %d", sink.Closed())
	}
}

func TestWatchedStripCountsLateReads(t *testing.T) {
	ch := model.NewChannel("Vox")
	strip := mock.NewWatchedStrip(ch)

	_ = strip.Name()
	if strip.LateReads() != 0 {
		t.Fatalf("LateReads = %d before destroy", strip.LateReads())
	}

	ch.Destroy()
	_ = strip.Name()
	_ = strip.Gain()
	if strip.LateReads() != 2 {
		t.Errorf("LateReads = %d, want 2", strip.LateReads())
	}
}
