package oscstrip_test

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"

	"github.com/oscstrip/oscstrip-go/pkg/examples"
	"github.com/oscstrip/oscstrip-go/pkg/feedback"
	"github.com/oscstrip/oscstrip-go/pkg/model"
	"github.com/oscstrip/oscstrip-go/pkg/surface"
	"github.com/oscstrip/oscstrip-go/pkg/transport"
	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

// udpSurface collects the OSC messages a surface would receive.
type udpSurface struct {
	conn net.PacketConn

	mu   sync.Mutex
	msgs []*osc.Message
}

func newUDPSurface(t *testing.T) *udpSurface {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &udpSurface{conn: conn}
	go s.serve()
	t.Cleanup(func() { conn.Close() })
	return s
}

func (s *udpSurface) serve() {
	buf := make([]byte, 65535)
	for {
		n, _, err := s.conn.ReadFrom(buf)
		if err != nil {
			return
		}
		packet, err := osc.ParsePacket(string(buf[:n]))
		if err != nil {
			continue
		}
		if msg, ok := packet.(*osc.Message); ok {
			s.mu.Lock()
			s.msgs = append(s.msgs, msg)
			s.mu.Unlock()
		}
	}
}

func (s *udpSurface) url() string {
	return fmt.Sprintf("osc.udp://%s/", s.conn.LocalAddr())
}

// waitFor polls until a message with the given address and arguments arrives.
func (s *udpSurface) waitFor(t *testing.T, address string, args ...any) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		for _, msg := range s.msgs {
			if msg.Address == address && fmt.Sprint(msg.Arguments) == fmt.Sprint([]any(args)) {
				s.mu.Unlock()
				return
			}
		}
		s.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no %s %v received", address, args)
}

func TestSurfaceOverUDP(t *testing.T) {
	remote := newUDPSurface(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := transport.NewDispatcher(transport.Config{})
	go d.Run(ctx)
	defer d.Close()

	surf, err := surface.New(surface.Config{
		RemoteURL:    remote.url(),
		Feedback:     feedback.Config{Flags: feedback.FlagButtons | feedback.FlagLevels | feedback.FlagMeter},
		TickInterval: 10 * time.Millisecond,
	}, d)
	if err != nil {
		t.Fatalf("surface.New: %v", err)
	}
	defer surf.Close()
	go surf.Run(ctx)

	mixer := examples.NewMixer(examples.MixerConfig{Tracks: 2})
	if err := surf.AssignAll(mixer.Bank(1, 2), false); err != nil {
		t.Fatalf("AssignAll: %v", err)
	}

	t.Run("InitialState", func(t *testing.T) {
		remote.waitFor(t, wire.PathName, int32(1), "Track 1")
		remote.waitFor(t, wire.PathName, int32(2), "Track 2")
		remote.waitFor(t, wire.PathMute, int32(2), float32(0))
	})

	t.Run("ControlChange", func(t *testing.T) {
		ch, err := mixer.Channel(1)
		if err != nil {
			t.Fatal(err)
		}
		mute, err := ch.Parameter(model.ControlMute)
		if err != nil {
			t.Fatal(err)
		}
		mute.Set(1)
		remote.waitFor(t, wire.PathMute, int32(1), float32(1))

		ch.SetName("Kick")
		remote.waitFor(t, wire.PathName, int32(1), "Kick")
	})

	t.Run("RemovedStripClearsSlot", func(t *testing.T) {
		if err := mixer.Remove(2); err != nil {
			t.Fatal(err)
		}
		obs, err := surf.Observer(2)
		if err != nil {
			t.Fatal(err)
		}
		if obs.State() != feedback.StateUnbound {
			t.Errorf("State() = %v, want UNBOUND", obs.State())
		}

		// The bank is one channel short now; slot 2 gets the cleared burst.
		if err := surf.AssignAll(mixer.Bank(1, 2), false); err != nil {
			t.Fatal(err)
		}
		remote.waitFor(t, wire.PathName, int32(2), " ")
	})
}
