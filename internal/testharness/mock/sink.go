package mock

import (
	"sync"

	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

// RecordingSink is a wire.Sink that keeps every message it receives.
type RecordingSink struct {
	// OnSend, when set, is called for each message after it is recorded.
	OnSend func(msg wire.Message)

	mu       sync.Mutex
	messages []wire.Message
	closed   int
}

// NewRecordingSink creates an empty sink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Send records msg.
func (s *RecordingSink) Send(msg wire.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	hook := s.OnSend
	s.mu.Unlock()

	if hook != nil {
		hook(msg)
	}
}

// Close counts calls so tests can check the sink was released.
func (s *RecordingSink) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

// Closed returns how many times Close was called.
func (s *RecordingSink) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Messages returns a copy of everything recorded so far.
func (s *RecordingSink) Messages() []wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]wire.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of recorded messages.
func (s *RecordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Paths returns the path of every recorded message, in order.
func (s *RecordingSink) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Path
	}
	return out
}

// ByPath returns the recorded messages sent to path, in order.
func (s *RecordingSink) ByPath(path string) []wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []wire.Message
	for _, m := range s.messages {
		if m.Path == path {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recent message sent to path.
func (s *RecordingSink) Last(path string) (wire.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Path == path {
			return s.messages[i], true
		}
	}
	return wire.Message{}, false
}

// Reset forgets all recorded messages.
func (s *RecordingSink) Reset() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
}

var _ wire.Sink = (*RecordingSink)(nil)
