// Command oscstrip drives an OSC control surface from a simulated mixer.
//
// It builds an in-memory mixer with tracks and buses, shows one bank of
// channels on the surface, and keeps the surface in sync: names, buttons,
// levels, automation and meters are sent as OSC feedback.
//
// Usage:
//
//	oscstrip [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-remote string        Surface address (default "osc.udp://127.0.0.1:9000/")
//	-feedback string      Feedback categories, comma separated (default "buttons,levels")
//	-gain-mode int        0 dB, 1 fader + name, 2 fader + dB
//	-slots int            Strips shown at once (default 8)
//	-strips int           Tracks in the simulated mixer (default 16)
//	-buses int            Buses in the simulated mixer (default 2)
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Capture every feedback message to this file
//	-state string         Restore the session from this file and save it on exit
//	-interactive          Start the interactive console
//	-simulate             Simulate meters and automation (default true)
//
// Examples:
//
//	# Drive a tablet surface with meters
//	oscstrip -remote 192.168.1.20:8000 -feedback buttons,levels,meter,signal -gain-mode 1
//
//	# Interactive session with a capture file
//	oscstrip -interactive -protocol-log session.oslog
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/oscstrip/oscstrip-go/cmd/oscstrip/interactive"
	"github.com/oscstrip/oscstrip-go/internal/config"
	"github.com/oscstrip/oscstrip-go/pkg/examples"
	"github.com/oscstrip/oscstrip-go/pkg/log"
	"github.com/oscstrip/oscstrip-go/pkg/persistence"
	"github.com/oscstrip/oscstrip-go/pkg/surface"
	"github.com/oscstrip/oscstrip-go/pkg/transport"
)

var (
	configFile    = flag.String("config", "", "Configuration file path (YAML)")
	remoteURL     = flag.String("remote", config.DefaultRemoteURL, "Surface address")
	feedbackNames = flag.String("feedback", "buttons,levels", "Feedback categories, comma separated")
	gainMode      = flag.Int("gain-mode", 0, "Gain display: 0 dB, 1 fader + name, 2 fader + dB")
	routing       = flag.String("routing", "unicast", "Message routing: unicast, broadcast")
	expandSlot    = flag.Uint("expand", 0, "Initially expanded slot (0 for none)")
	linkMissing   = flag.Uint("link", 0, "Linked surfaces still missing")
	slots         = flag.Int("slots", config.DefaultSlots, "Strips shown at once")
	strips        = flag.Int("strips", config.DefaultStrips, "Tracks in the simulated mixer")
	buses         = flag.Int("buses", 2, "Buses in the simulated mixer")
	tickInterval  = flag.String("tick", surface.DefaultTickInterval.String(), "Feedback sampling interval")
	logLevel      = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	protocolLog   = flag.String("protocol-log", "", "Capture every feedback message to this file")
	stateFile     = flag.String("state", "", "Restore the session from this file and save it on exit")
	interactiveUI = flag.Bool("interactive", false, "Start the interactive console")
	simulate      = flag.Bool("simulate", true, "Simulate meters and automation")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level, _ := cfg.LogLevel()
	out := &switchWriter{w: os.Stderr}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	sessionID := log.NewSessionID()
	capture, closeCapture, err := openCapture(cfg.Logging.ProtocolLog, level, logger)
	if err != nil {
		return err
	}
	defer closeCapture()

	tcfg, err := cfg.TransportConfig()
	if err != nil {
		return err
	}
	tcfg.Logger = logger
	tcfg.Capture = capture
	tcfg.SessionID = sessionID
	dispatcher := transport.NewDispatcher(tcfg)

	scfg, err := cfg.SurfaceConfig()
	if err != nil {
		return err
	}
	opts := []surface.Option{surface.WithLogger(logger)}
	if capture != nil {
		opts = append(opts, surface.WithCapture(capture, sessionID))
	}
	surf, err := surface.New(scfg, dispatcher, opts...)
	if err != nil {
		return err
	}

	mixer := examples.NewMixer(examples.MixerConfig{Tracks: cfg.Engine.Strips, Buses: *buses})

	var store *persistence.SessionStore
	bank := 1
	if *stateFile != "" {
		store = persistence.NewSessionStore(*stateFile)
		if bank, err = restoreSession(store, mixer, surf); err != nil {
			_ = surf.Close()
			return err
		}
	}

	logger.Info("oscstrip starting",
		"session", sessionID,
		"remote", scfg.RemoteURL,
		"feedback", scfg.Feedback.Flags,
		"gain_mode", scfg.Feedback.GainMode,
		"slots", cfg.Surface.Slots,
		"channels", mixer.Len())

	if err := surf.AssignAll(mixer.Bank(bank, cfg.Surface.Slots), false); err != nil {
		return err
	}

	sim := newSimulation(mixer, scfg.TickInterval, logger)

	var console *interactive.Console
	if *interactiveUI {
		console, err = interactive.New(interactive.Config{
			Mixer:      mixer,
			Surface:    surf,
			Dispatcher: dispatcher,
			Settings:   cfg,
			Simulation: sim,
			Store:      store,
			Bank:       bank,
		})
		if err != nil {
			_ = surf.Close()
			return err
		}
		out.Set(console.Stdout())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = dispatcher.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = surf.Run(ctx)
	}()

	if *simulate {
		sim.Start()
	}

	if console != nil {
		console.Run(ctx, cancel)
		out.Set(os.Stderr)
		bank = console.Bank()
	} else {
		<-ctx.Done()
		logger.Info("shutting down")
	}

	cancel()
	sim.Stop()
	if store != nil {
		if err := saveSession(store, mixer, surf, bank); err != nil {
			logger.Warn("saving session", "path", store.Path(), "error", err)
		} else {
			logger.Info("session saved", "path", store.Path())
		}
	}
	if err := surf.Close(); err != nil {
		logger.Warn("closing surface", "error", err)
	}
	wg.Wait()
	if err := dispatcher.Close(); err != nil {
		logger.Warn("closing transport", "error", err)
	}

	st := dispatcher.Stats()
	logger.Info("oscstrip stopped",
		"queued", st.Queued, "sent", st.Sent, "dropped", st.Dropped, "failed", st.Failed)
	return nil
}

// loadConfig reads the configuration file, if any, and applies the flags
// given on the command line.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return nil, err
		}
	}

	var o config.Overrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "remote":
			o.RemoteURL = remoteURL
		case "feedback":
			o.Feedback = feedbackNames
		case "gain-mode":
			o.GainMode = gainMode
		case "routing":
			o.Routing = routing
		case "expand":
			v := uint32(*expandSlot)
			o.Expand = &v
		case "link":
			v := uint32(*linkMissing)
			o.LinkReadiness = &v
		case "slots":
			o.Slots = slots
		case "strips":
			o.Strips = strips
		case "tick":
			o.TickInterval = tickInterval
		case "log-level":
			o.LogLevel = logLevel
		case "protocol-log":
			o.ProtocolLog = protocolLog
		}
	})
	if err := cfg.Apply(o); err != nil {
		return nil, err
	}
	return cfg, nil
}

// restoreSession loads a saved session into the mixer and surface. It
// returns the first channel of the saved bank, or 1 when nothing was saved.
func restoreSession(store *persistence.SessionStore, mixer *examples.Mixer, surf *surface.Surface) (int, error) {
	state, err := store.Load()
	if err != nil {
		return 0, fmt.Errorf("load session %s: %w", store.Path(), err)
	}
	if state == nil {
		return 1, nil
	}
	mixer.Restore(state.Channels)
	if state.Expand != 0 {
		surf.SetExpand(state.Expand)
	}
	return max(state.Bank, 1), nil
}

func saveSession(store *persistence.SessionStore, mixer *examples.Mixer, surf *surface.Surface, bank int) error {
	return store.Save(&persistence.SessionState{
		Bank:     bank,
		Expand:   surf.Expand(),
		Channels: mixer.Snapshot(),
	})
}

// openCapture opens the protocol capture file. At debug level captured
// events are mirrored to the operational log as well.
func openCapture(path string, level slog.Level, logger *slog.Logger) (log.Logger, func(), error) {
	if path == "" {
		if level <= slog.LevelDebug {
			return log.NewSlogAdapter(logger), func() {}, nil
		}
		return nil, func() {}, nil
	}

	file, err := log.NewFileLogger(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open protocol log: %w", err)
	}
	closeFn := func() {
		if err := file.Close(); err != nil {
			logger.Warn("closing protocol log", "error", err)
		}
		logger.Info("protocol log closed", "path", path, "events", file.Written())
	}

	if level <= slog.LevelDebug {
		return log.NewMultiLogger(file, log.NewSlogAdapter(logger)), closeFn, nil
	}
	return file, closeFn, nil
}

// switchWriter lets the log output move to the console once it is running.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) Set(w io.Writer) {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
}
