package feedback

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

var (
	// ErrUnknownFlag is returned by ParseFlags for a name it does not know.
	ErrUnknownFlag = errors.New("unknown feedback flag")

	// ErrInvalidGainMode is returned for a gain mode outside 0..2.
	ErrInvalidGainMode = errors.New("invalid gain mode")
)

// Flags selects which feedback categories a surface wants. Bit positions
// match the surface's feedback setting so that a numeric value entered on
// the surface can be used directly.
type Flags uint32

const (
	// FlagButtons enables name, visibility, mute, solo, record, monitoring and selection.
	FlagButtons Flags = 1 << iota
	// FlagLevels enables gain or fader, trim, pan and automation mode.
	FlagLevels
	// FlagIDInPath puts the slot id at the end of the path instead of in the arguments.
	FlagIDInPath
	// FlagHeartbeat is a surface-wide feature and is ignored by strip observers.
	FlagHeartbeat
	// FlagMaster is a surface-wide feature and is ignored by strip observers.
	FlagMaster
	// FlagBarBeat is a surface-wide feature and is ignored by strip observers.
	FlagBarBeat
	// FlagTimecode is a surface-wide feature and is ignored by strip observers.
	FlagTimecode
	// FlagMeter enables the continuous meter.
	FlagMeter
	// FlagMeterLED enables the 16-segment LED meter. FlagMeter wins when both are set.
	FlagMeterLED
	// FlagSignal enables the signal-present indicator.
	FlagSignal
	// FlagPlayheadSamples is a surface-wide feature and is ignored by strip observers.
	FlagPlayheadSamples
)

var flagNames = map[string]Flags{
	"buttons":          FlagButtons,
	"levels":           FlagLevels,
	"id_in_path":       FlagIDInPath,
	"heartbeat":        FlagHeartbeat,
	"master":           FlagMaster,
	"bar_beat":         FlagBarBeat,
	"timecode":         FlagTimecode,
	"meter":            FlagMeter,
	"meter_led":        FlagMeterLED,
	"signal":           FlagSignal,
	"playhead_samples": FlagPlayheadSamples,
}

// Has reports whether every flag in mask is set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// Any reports whether at least one flag in mask is set.
func (f Flags) Any(mask Flags) bool {
	return f&mask != 0
}

// String lists the set flags by name in bit order, joined with "|".
func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	type entry struct {
		name string
		bit  Flags
	}
	var set []entry
	for name, bit := range flagNames {
		if f&bit != 0 {
			set = append(set, entry{name, bit})
		}
	}
	sort.Slice(set, func(i, j int) bool { return set[i].bit < set[j].bit })
	names := make([]string, len(set))
	for i, e := range set {
		names[i] = e.name
	}
	return strings.Join(names, "|")
}

// ParseFlags combines named flags. Names are case-insensitive.
func ParseFlags(names []string) (Flags, error) {
	var f Flags
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		bit, ok := flagNames[key]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownFlag, name)
		}
		f |= bit
	}
	return f, nil
}

// GainMode selects how gain is reported.
type GainMode uint8

const (
	// GainDB reports gain in dB on /strip/gain.
	GainDB GainMode = iota
	// GainFaderName reports the fader position and briefly shows the dB
	// value in the strip name.
	GainFaderName
	// GainFaderDB reports the fader position and the dB value.
	GainFaderDB
)

// HasFader reports whether the mode sends a fader position.
func (m GainMode) HasFader() bool {
	return m == GainFaderName || m == GainFaderDB
}

// HasDB reports whether the mode sends gain in dB.
func (m GainMode) HasDB() bool {
	return m == GainDB || m == GainFaderDB
}

// String returns the mode name.
func (m GainMode) String() string {
	switch m {
	case GainDB:
		return "DB"
	case GainFaderName:
		return "FADER_NAME"
	case GainFaderDB:
		return "FADER_DB"
	default:
		return "UNKNOWN"
	}
}

// Config is the per-surface feedback configuration an Observer is built with.
type Config struct {
	Flags    Flags
	GainMode GainMode

	// Routing is copied onto every message.
	Routing wire.Routing

	// ExpandEnabled makes the observer start with Expand as the expanded slot.
	ExpandEnabled bool
	Expand        uint32

	// LinkReadiness is the number of linked surfaces still missing. Non-zero
	// starts the observer in link-wait.
	LinkReadiness uint32
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.GainMode > GainFaderDB {
		return fmt.Errorf("%w: %d", ErrInvalidGainMode, c.GainMode)
	}
	return nil
}
