package interactive

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscstrip/oscstrip-go/internal/config"
	"github.com/oscstrip/oscstrip-go/pkg/examples"
	"github.com/oscstrip/oscstrip-go/pkg/feedback"
	"github.com/oscstrip/oscstrip-go/pkg/model"
	"github.com/oscstrip/oscstrip-go/pkg/persistence"
	"github.com/oscstrip/oscstrip-go/pkg/surface"
	"github.com/oscstrip/oscstrip-go/pkg/transport"
)

type nopClient struct{}

func (nopClient) Send(osc.Packet) error { return nil }

type fakeSim struct{ running bool }

func (f *fakeSim) Start()        { f.running = true }
func (f *fakeSim) Stop()         { f.running = false }
func (f *fakeSim) Running() bool { return f.running }

type fixture struct {
	console *Console
	out     *bytes.Buffer
	mixer   *examples.Mixer
	surf    *surface.Surface
	sim     *fakeSim
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	settings := config.Default()
	settings.Surface.Slots = 4

	d := transport.NewDispatcher(transport.Config{
		Dial: func(string, int) transport.Client { return nopClient{} },
	})
	ctx, cancel := context.WithCancel(context.Background())
	go d.Run(ctx)
	t.Cleanup(func() {
		cancel()
		d.Close()
	})

	surf, err := surface.New(surface.Config{
		RemoteURL: settings.Surface.RemoteURL,
		Feedback:  feedback.Config{Flags: feedback.FlagButtons | feedback.FlagLevels},
	}, d)
	require.NoError(t, err)
	t.Cleanup(func() { surf.Close() })

	mixer := examples.NewMixer(examples.MixerConfig{Tracks: 6, Buses: 1})
	sim := &fakeSim{}
	out := &bytes.Buffer{}

	c := newConsole(Config{
		Mixer:      mixer,
		Surface:    surf,
		Dispatcher: d,
		Settings:   settings,
		Simulation: sim,
	}, out)

	return &fixture{console: c, out: out, mixer: mixer, surf: surf, sim: sim}
}

func (f *fixture) run(t *testing.T, line string) string {
	t.Helper()
	f.out.Reset()
	require.True(t, f.console.Execute(line))
	return f.out.String()
}

func (f *fixture) boundName(t *testing.T, slot uint32) string {
	t.Helper()
	obs, err := f.surf.Observer(slot)
	require.NoError(t, err)
	if obs.Strip() == nil {
		return ""
	}
	return obs.Strip().Name()
}

func TestBankCommands(t *testing.T) {
	f := newFixture(t)

	assert.Contains(t, f.run(t, "bank 1"), "Showing channels 1-4")
	assert.Equal(t, []uint32{1, 2, 3, 4}, f.surf.Slots())
	assert.Equal(t, "Track 1", f.boundName(t, 1))

	f.run(t, "next")
	assert.Equal(t, "Track 5", f.boundName(t, 1))
	assert.Equal(t, "Bus 1", f.boundName(t, 3))
	assert.Equal(t, "", f.boundName(t, 4), "slots past the last channel are cleared")

	obs, err := f.surf.Observer(4)
	require.NoError(t, err)
	assert.Equal(t, feedback.StateUnbound, obs.State())

	f.run(t, "prev")
	assert.Equal(t, "Track 1", f.boundName(t, 1))

	assert.Contains(t, f.run(t, "bank"), "Bank 1 (channels 1-4)")
	assert.Contains(t, f.run(t, "bank zero"), "invalid bank")
}

func TestAssignAndRelease(t *testing.T) {
	f := newFixture(t)

	assert.Contains(t, f.run(t, "assign 2 6"), "OK")
	assert.Equal(t, "Track 6", f.boundName(t, 2))

	assert.Contains(t, f.run(t, "assign 2 0"), "OK")
	assert.Equal(t, "", f.boundName(t, 2))

	assert.Contains(t, f.run(t, "assign 2 99"), "no such channel")
	assert.Contains(t, f.run(t, "release 2"), "OK")
	assert.Empty(t, f.surf.Slots())
	assert.Contains(t, f.run(t, "release 2"), "slot not found")
}

func TestToggleCommands(t *testing.T) {
	f := newFixture(t)
	ch, err := f.mixer.Channel(1)
	require.NoError(t, err)

	f.run(t, "mute 1")
	assert.Equal(t, 1.0, ch.Mute().Value())
	f.run(t, "mute 1")
	assert.Equal(t, 0.0, ch.Mute().Value())
	f.run(t, "solo 1 on")
	assert.Equal(t, 1.0, ch.Solo().Value())
	f.run(t, "rec 1 yes")
	assert.Equal(t, 1.0, ch.RecEnable().Value())

	assert.Contains(t, f.run(t, "rec 7"), "has no rec control", "buses cannot record")
	assert.Contains(t, f.run(t, "mute 1 maybe"), "expected on or off")
}

func TestLevelCommands(t *testing.T) {
	f := newFixture(t)
	ch, err := f.mixer.Channel(2)
	require.NoError(t, err)

	f.run(t, "gain 2 -6")
	assert.InDelta(t, model.DBToCoefficient(-6), ch.Gain().Value(), 1e-12)
	f.run(t, "gain 2 -inf")
	assert.Equal(t, 0.0, ch.Gain().Value())
	f.run(t, "trim 2 3")
	assert.InDelta(t, model.DBToCoefficient(3), ch.Trim().Value(), 1e-12)
	f.run(t, "pan 2 0.25")
	assert.Equal(t, 0.25, ch.Pan().Value())

	assert.Contains(t, f.run(t, "pan 2 2"), "between 0 and 1")
	assert.Contains(t, f.run(t, "trim 7 1"), "has no trim control")
	assert.Contains(t, f.run(t, "gain 2 loud"), "invalid level")
}

func TestMonitorAutomationMeter(t *testing.T) {
	f := newFixture(t)
	ch, err := f.mixer.Channel(1)
	require.NoError(t, err)

	f.run(t, "monitor 1 cue")
	assert.Equal(t, float64(model.MonitorCue), ch.Monitoring().Value())
	assert.Contains(t, f.run(t, "monitor 1 tape"), "unknown monitoring mode")

	f.run(t, "auto 1 touch")
	assert.Equal(t, model.AutomationTouch, ch.Gain().AutomationState())
	assert.Contains(t, f.run(t, "auto 1 trim"), "unknown automation mode")

	f.run(t, "meter 1 -12.5")
	assert.Equal(t, -12.5, ch.PeakMeter().Level())
}

func TestStripProperties(t *testing.T) {
	f := newFixture(t)
	f.run(t, "bank 1")

	f.run(t, "name 1 Lead Vox")
	assert.Equal(t, "Lead Vox", f.boundName(t, 1))

	ch, err := f.mixer.Channel(1)
	require.NoError(t, err)
	f.run(t, "hide 1")
	assert.True(t, ch.Hidden())
	f.run(t, "hide 1 off")
	assert.False(t, ch.Hidden())

	f.run(t, "select 1")
	assert.True(t, ch.Selected())
	f.run(t, "select 0")
	assert.False(t, ch.Selected())

	out := f.run(t, "strips")
	assert.Contains(t, out, "Lead Vox")
	assert.Contains(t, out, "Bus 1")
}

func TestAddRemoveRefillsBank(t *testing.T) {
	f := newFixture(t)
	f.run(t, "bank 1")

	assert.Contains(t, f.run(t, "remove 1"), "Removed channel 1")
	assert.Equal(t, "Track 2", f.boundName(t, 1))
	assert.Equal(t, 6, f.mixer.Len())

	assert.Contains(t, f.run(t, "add Reverb bus"), "Added channel 7")
	rev, err := f.mixer.Channel(7)
	require.NoError(t, err)
	assert.Nil(t, rev.RecEnable())

	assert.Contains(t, f.run(t, "remove 42"), "no such channel")
}

func TestSurfaceWideCommands(t *testing.T) {
	f := newFixture(t)
	f.run(t, "bank 1")

	f.run(t, "link 2")
	obs, err := f.surf.Observer(1)
	require.NoError(t, err)
	assert.Equal(t, feedback.StateLinkWait, obs.State())

	f.run(t, "link 0")
	assert.Equal(t, feedback.StateBound, obs.State())

	assert.Contains(t, f.run(t, "expand 2"), "OK")
	assert.Contains(t, f.run(t, "slots"), "[1] BOUND")
}

func TestSimulationStatusAndConfig(t *testing.T) {
	f := newFixture(t)

	f.run(t, "start")
	assert.True(t, f.sim.Running())
	assert.Contains(t, f.run(t, "status"), "Simulation: true")
	f.run(t, "stop")
	assert.False(t, f.sim.Running())

	status := f.run(t, "status")
	assert.Contains(t, status, "Channels:   7")
	assert.Contains(t, status, "Transport:")

	assert.Contains(t, f.run(t, "config"), "remote_url:")
}

func TestQuitAndUnknown(t *testing.T) {
	f := newFixture(t)

	assert.Contains(t, f.run(t, "frobnicate"), "Unknown command: frobnicate")
	assert.True(t, f.console.Execute("   "))
	assert.Contains(t, f.run(t, "help"), "oscstrip Commands")
	assert.False(t, f.console.Execute("quit"))
}

func TestSaveAndLoad(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "session.json")

	assert.Contains(t, f.run(t, "save"), "no state file configured")

	f.run(t, "name 1 Kick")
	f.run(t, "mute 1 on")
	f.run(t, "bank 2")
	f.run(t, "expand 2")
	assert.Contains(t, f.run(t, "save "+path), "Saved 7 channels")

	f.run(t, "remove 1")
	f.run(t, "bank 1")
	require.Equal(t, 6, f.mixer.Len())

	f.console.cfg.Store = persistence.NewSessionStore(path)
	assert.Contains(t, f.run(t, "load"), "Loaded 7 channels")
	assert.Equal(t, 7, f.mixer.Len())
	assert.Equal(t, 5, f.console.Bank())
	assert.Equal(t, uint32(2), f.surf.Expand())

	ch, err := f.mixer.Channel(1)
	require.NoError(t, err)
	assert.Equal(t, "Kick", ch.Name())
	assert.Equal(t, 1.0, ch.Mute().Value())
	assert.Equal(t, "Track 5", f.boundName(t, 1))

	assert.Contains(t, f.run(t, "load "+filepath.Join(t.TempDir(), "none.json")), "no saved session")
}
