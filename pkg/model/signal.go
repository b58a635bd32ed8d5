package model

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Connection is a handle to one registered change handler.
// Disconnect is safe to call more than once and from inside the handler itself.
type Connection interface {
	Disconnect()
}

// Signal is an explicit observer registry for one kind of notification.
// The zero value is ready to use.
type Signal[T any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]func(T)
}

// Connect registers fn and returns the handle that removes it again.
func (s *Signal[T]) Connect(fn func(T)) Connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handlers == nil {
		s.handlers = make(map[uint64]func(T))
	}
	s.nextID++
	id := s.nextID
	s.handlers[id] = fn

	return &signalConnection[T]{signal: s, id: id}
}

// Emit invokes every connected handler with v.
// The handler list is copied first and handlers run outside the lock, so a
// handler may disconnect itself or any other handler.
func (s *Signal[T]) Emit(v T) {
	s.mu.RLock()
	ids := make([]uint64, 0, len(s.handlers))
	for id := range s.handlers {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	// Deliver in registration order.
	slices.Sort(ids)

	for _, id := range ids {
		s.mu.RLock()
		fn, ok := s.handlers[id]
		s.mu.RUnlock()
		if ok {
			fn(v)
		}
	}
}

// Count returns the number of connected handlers.
func (s *Signal[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

func (s *Signal[T]) disconnect(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, id)
}

type signalConnection[T any] struct {
	signal *Signal[T]
	id     uint64
	done   atomic.Bool
}

func (c *signalConnection[T]) Disconnect() {
	if c.done.Swap(true) {
		return
	}
	c.signal.disconnect(c.id)
}
