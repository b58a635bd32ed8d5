package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oscstrip/oscstrip-go/pkg/examples"
)

// simulation steps the mixer's meters and automation in the background.
type simulation struct {
	mixer    *examples.Mixer
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func newSimulation(mixer *examples.Mixer, interval time.Duration, logger *slog.Logger) *simulation {
	return &simulation{mixer: mixer, interval: interval, logger: logger}
}

func (s *simulation) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	s.logger.Info("simulation started", "interval", s.interval)
}

func (s *simulation) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.logger.Info("simulation stopped")
}

func (s *simulation) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *simulation) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mixer.SimulateStep()
		}
	}
}
