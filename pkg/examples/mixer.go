package examples

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/oscstrip/oscstrip-go/pkg/model"
)

// ErrNoSuchChannel is returned for a channel number outside the mixer.
var ErrNoSuchChannel = errors.New("no such channel")

// MixerConfig contains configuration for creating a Mixer.
type MixerConfig struct {
	// Tracks is the number of record-capable channels.
	Tracks int

	// Buses is the number of buses appended after the tracks. Buses have
	// no record or monitoring controls and no trim.
	Buses int

	// TrackPrefix and BusPrefix name the channels ("Track 1", "Bus 1", ...).
	TrackPrefix string
	BusPrefix   string
}

// Mixer is an in-memory mixing engine made of model.Channels. Channels are
// numbered from 1 in display order.
type Mixer struct {
	mu       sync.RWMutex
	channels []*model.Channel

	// phase drives the simulated meters and automation.
	phase float64
}

// NewMixer creates a mixer with the given configuration.
func NewMixer(cfg MixerConfig) *Mixer {
	if cfg.TrackPrefix == "" {
		cfg.TrackPrefix = "Track"
	}
	if cfg.BusPrefix == "" {
		cfg.BusPrefix = "Bus"
	}

	m := &Mixer{}
	for i := 1; i <= cfg.Tracks; i++ {
		m.channels = append(m.channels, model.NewChannel(
			fmt.Sprintf("%s %d", cfg.TrackPrefix, i),
			model.WithTrack(), model.WithTrim(), model.WithPan(),
			model.WithSoloIsolate(), model.WithSoloSafe(), model.WithMeter(),
		))
	}
	for i := 1; i <= cfg.Buses; i++ {
		m.channels = append(m.channels, model.NewChannel(
			fmt.Sprintf("%s %d", cfg.BusPrefix, i),
			model.WithPan(), model.WithMeter(),
		))
	}
	return m
}

// Len returns the number of channels.
func (m *Mixer) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.channels)
}

// Channel returns channel n (1-based).
func (m *Mixer) Channel(n int) (*model.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n < 1 || n > len(m.channels) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchChannel, n)
	}
	return m.channels[n-1], nil
}

// Channels returns a copy of the channel list.
func (m *Mixer) Channels() []*model.Channel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Channel, len(m.channels))
	copy(out, m.channels)
	return out
}

// Bank returns size strips starting at channel first (1-based). Positions
// past the last channel are nil, so the result can be handed to a surface
// as a complete bank.
func (m *Mixer) Bank(first, size int) []model.Strip {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bank := make([]model.Strip, size)
	for i := range bank {
		idx := first - 1 + i
		if idx >= 0 && idx < len(m.channels) {
			bank[i] = m.channels[idx]
		}
	}
	return bank
}

// Add appends a channel and returns its number.
func (m *Mixer) Add(name string, opts ...model.ChannelOption) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, model.NewChannel(name, opts...))
	return len(m.channels)
}

// Remove destroys channel n and removes it from the mixer. Observers of the
// channel are notified through its drop-references signal before it is gone.
func (m *Mixer) Remove(n int) error {
	m.mu.Lock()
	if n < 1 || n > len(m.channels) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrNoSuchChannel, n)
	}
	ch := m.channels[n-1]
	m.channels = append(m.channels[:n-1], m.channels[n:]...)
	m.mu.Unlock()

	ch.Destroy()
	return nil
}

// Select makes channel n the only selected channel. n == 0 clears the selection.
func (m *Mixer) Select(n int) error {
	if n != 0 {
		if _, err := m.Channel(n); err != nil {
			return err
		}
	}
	for i, ch := range m.Channels() {
		want := i+1 == n
		if ch.Selected() != want {
			ch.SetSelected(want)
		}
	}
	return nil
}

// Simulation methods

// SimulateStep advances the simulation by one step. Every metered channel
// gets a new peak level, and channels whose gain automation is playing
// follow a slow gain curve.
func (m *Mixer) SimulateStep() {
	m.mu.Lock()
	m.phase += 0.15
	phase := m.phase
	m.mu.Unlock()

	for i, ch := range m.Channels() {
		if meter := ch.Meter(); meter != nil {
			meter.Set(SimulatedLevel(phase, i))
		}
		if ch.Gain().AutomationState().IsPlaying() {
			ch.GainParameter().Set(model.DBToCoefficient(SimulatedGainDB(phase, i)))
		}
	}
}

// SimulatedLevel is the peak level in dBFS of channel index i at phase.
// Every fifth channel is silent.
func SimulatedLevel(phase float64, i int) float64 {
	if i%5 == 4 {
		return -200
	}
	return -60 + 50*(0.5+0.5*math.Sin(phase+float64(i)*0.7))
}

// SimulatedGainDB is the automated gain in dB of channel index i at phase.
func SimulatedGainDB(phase float64, i int) float64 {
	return -20 + 14*math.Sin(phase*0.5+float64(i))
}
