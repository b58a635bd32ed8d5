package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// SessionState is a saved simulator session: the mixer's channels and what
// the surface was showing.
type SessionState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Bank is the first channel shown on slot 1.
	Bank int `json:"bank"`

	// Expand is the expanded slot, 0 for none.
	Expand uint32 `json:"expand,omitempty"`

	// Channels in display order.
	Channels []ChannelState `json:"channels,omitempty"`
}

// ChannelState captures one channel. Optional controls the channel lacks
// are left nil.
type ChannelState struct {
	Name     string `json:"name"`
	Bus      bool   `json:"bus,omitempty"`
	Hidden   bool   `json:"hidden,omitempty"`
	Selected bool   `json:"selected,omitempty"`

	Mute bool `json:"mute,omitempty"`
	Solo bool `json:"solo,omitempty"`

	// Gain is a linear coefficient.
	Gain       float64 `json:"gain"`
	Automation string  `json:"automation,omitempty"`

	Trim       *float64 `json:"trim,omitempty"`
	Pan        *float64 `json:"pan,omitempty"`
	RecEnable  *bool    `json:"rec_enable,omitempty"`
	Monitoring *uint8   `json:"monitoring,omitempty"`
}

// SessionStore manages persistence of session state to a JSON file.
type SessionStore struct {
	mu   sync.Mutex
	path string
}

// NewSessionStore creates a new session store.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

// Path returns the state file path.
func (s *SessionStore) Path() string {
	return s.path
}

// Save persists the session state to disk.
func (s *SessionStore) Save(state *SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0644)
}

// Load reads the session state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *SessionStore) Load() (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &SessionState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Clear removes the state file.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
