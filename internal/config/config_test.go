package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oscstrip/oscstrip-go/pkg/feedback"
	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

const sampleYAML = `
surface:
  remote_url: osc.udp://10.0.0.5:8000/
  feedback: [buttons, levels, id_in_path, meter, signal]
  gain_mode: 2
  routing: broadcast
  expand: 3
  link_readiness: 1
  slots: 12
engine:
  strips: 24
  tick_interval: 50ms
logging:
  level: debug
  protocol_log: capture.oslog
`

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	fb, err := cfg.FeedbackConfig()
	require.NoError(t, err)
	assert.Equal(t, feedback.FlagButtons|feedback.FlagLevels, fb.Flags)
	assert.Equal(t, feedback.GainDB, fb.GainMode)
	assert.False(t, fb.ExpandEnabled)

	interval, err := cfg.TickInterval()
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, interval)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	fb, err := cfg.FeedbackConfig()
	require.NoError(t, err)
	assert.True(t, fb.Flags.Has(feedback.FlagButtons|feedback.FlagLevels|feedback.FlagMeter|feedback.FlagSignal))
	assert.False(t, fb.Flags.Has(feedback.FlagMeterLED))
	assert.Equal(t, feedback.GainFaderDB, fb.GainMode)
	assert.Equal(t, wire.RoutingBroadcast, fb.Routing)
	assert.True(t, fb.ExpandEnabled)
	assert.Equal(t, uint32(3), fb.Expand)
	assert.Equal(t, uint32(1), fb.LinkReadiness)

	sc, err := cfg.SurfaceConfig()
	require.NoError(t, err)
	assert.Equal(t, "osc.udp://10.0.0.5:8000/", sc.RemoteURL)
	assert.Equal(t, 50*time.Millisecond, sc.TickInterval)

	tc, err := cfg.TransportConfig()
	require.NoError(t, err)
	assert.True(t, tc.IDInPath)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	assert.Equal(t, 12, cfg.Surface.Slots)
	assert.Equal(t, 24, cfg.Engine.Strips)
	assert.Equal(t, "capture.oslog", cfg.Logging.ProtocolLog)
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("surface:\n  gain_mode: 1\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultRemoteURL, cfg.Surface.RemoteURL)
	assert.Equal(t, DefaultSlots, cfg.Surface.Slots)
	assert.Equal(t, DefaultStrips, cfg.Engine.Strips)
	assert.Equal(t, 1, cfg.Surface.GainMode)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "surface: [\n"},
		{"unknown flag", "surface:\n  feedback: [buttons, sends]\n"},
		{"gain mode", "surface:\n  gain_mode: 3\n"},
		{"routing", "surface:\n  routing: multicast\n"},
		{"remote url", "surface:\n  remote_url: 'tcp://'\n"},
		{"slots", "surface:\n  slots: 0\n"},
		{"tick interval", "engine:\n  tick_interval: soon\n"},
		{"negative tick", "engine:\n  tick_interval: -1s\n"},
		{"log level", "logging:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			var ce *Error
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestParseUnknownFlagWrapsSentinels(t *testing.T) {
	_, err := Parse([]byte("surface:\n  feedback: [sends]\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, feedback.ErrUnknownFlag)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oscstrip.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Surface.Slots)
}

func TestLoadErrorsCarryFile(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.File, "missing.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("surface:\n  slots: -1\n"), 0o644))
	_, err = Load(bad)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, bad, ce.File)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestApply(t *testing.T) {
	cfg := Default()
	url := "127.0.0.1:7000"
	flags := "buttons, meter_led|signal"
	mode := 1
	slots := 4

	require.NoError(t, cfg.Apply(Overrides{
		RemoteURL: &url,
		Feedback:  &flags,
		GainMode:  &mode,
		Slots:     &slots,
	}))

	fb, err := cfg.FeedbackConfig()
	require.NoError(t, err)
	assert.Equal(t, feedback.FlagButtons|feedback.FlagMeterLED|feedback.FlagSignal, fb.Flags)
	assert.Equal(t, feedback.GainFaderName, fb.GainMode)
	assert.Equal(t, url, cfg.Surface.RemoteURL)
	assert.Equal(t, 4, cfg.Surface.Slots)
	assert.Equal(t, "unicast", cfg.Surface.Routing, "untouched fields keep their value")
}

func TestApplyRejectsInvalid(t *testing.T) {
	cfg := Default()
	level := "chatty"
	err := cfg.Apply(Overrides{LogLevel: &level})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	data, err := cfg.Marshal()
	require.NoError(t, err)

	again, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}
