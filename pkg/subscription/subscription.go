package subscription

import (
	"errors"
	"sync"

	"github.com/oscstrip/oscstrip-go/pkg/model"
)

// ErrSubscriptionNotFound is returned when dropping an unknown subscription ID.
var ErrSubscriptionNotFound = errors.New("subscription not found")

// Subscription is one change-notification binding held by a Set.
type Subscription struct {
	// ID is unique within the owning Set.
	ID uint32

	// Name describes what the binding watches (e.g. "/strip/mute").
	Name string

	conn model.Connection
}

// Set is the collection of bindings one observer holds against one strip.
// It is safe for concurrent use.
type Set struct {
	mu     sync.Mutex
	nextID uint32
	subs   []Subscription
}

// NewSet creates an empty subscription set.
func NewSet() *Set {
	return &Set{}
}

// Add takes ownership of conn and returns its subscription ID.
func (s *Set) Add(name string, conn model.Connection) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.subs = append(s.subs, Subscription{ID: s.nextID, Name: name, conn: conn})
	return s.nextID
}

// Drop disconnects and removes a single subscription.
func (s *Set) Drop(id uint32) error {
	s.mu.Lock()
	var conn model.Connection
	for i, sub := range s.subs {
		if sub.ID == id {
			conn = sub.conn
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	if conn == nil {
		return ErrSubscriptionNotFound
	}
	conn.Disconnect()
	return nil
}

// DropAll disconnects every subscription and empties the set.
// It returns how many subscriptions were dropped.
func (s *Set) DropAll() int {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	// Disconnect outside the lock: a connection may belong to a signal that
	// is currently dispatching into the owner of this set.
	for _, sub := range subs {
		sub.conn.Disconnect()
	}
	return len(subs)
}

// Count returns the number of live subscriptions.
func (s *Set) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Names returns the subscription names in the order they were added.
func (s *Set) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, len(s.subs))
	for i, sub := range s.subs {
		names[i] = sub.Name
	}
	return names
}
