package feedback

import (
	"fmt"
	"math"

	"github.com/oscstrip/oscstrip-go/pkg/model"
)

const (
	// GainFloorDB is reported for any gain at or below the floor coefficient.
	GainFloorDB          = -200.0
	gainFloorCoefficient = 1e-15

	// MeterFloorDB is the lowest meter level shown; anything below reads as SilenceDB.
	MeterFloorDB = -120.0

	// SilenceDB marks "nothing to show" on gain and meter paths.
	SilenceDB = -193.0

	// SignalThresholdDB is the level at or above which signal counts as present.
	SignalThresholdDB = -40.0

	ledSegments = 16
	ledFloorDB  = -54.0
	ledStepDB   = 3.75

	// GainNameTicks is how long the dB readout stays in the name field.
	GainNameTicks = 8
)

// GainToDB converts a linear gain to dB, floored at GainFloorDB so the
// result is always finite.
func GainToDB(g float64) float64 {
	if g < gainFloorCoefficient {
		return GainFloorDB
	}
	return model.CoefficientToDB(g)
}

// FormatGainDB renders a gain for the name field.
func FormatGainDB(g float64) string {
	return fmt.Sprintf("%.2f", GainToDB(g))
}

// ClampMeter replaces levels below MeterFloorDB, and NaN, with SilenceDB.
func ClampMeter(db float64) float64 {
	if math.IsNaN(db) || db < MeterFloorDB {
		return SilenceDB
	}
	return db
}

// NormalizeMeter maps a clamped meter level to 0..1 for fader-style surfaces.
func NormalizeMeter(db float64) float64 {
	return min(max((db+94)/100, 0), 1)
}

// MeterLEDBits returns a 16-bit mask with one bit per lit segment, lowest
// segment in bit 0.
func MeterLEDBits(db float64) uint16 {
	level := int((db-ledFloorDB)/ledStepDB) - 1
	level = min(max(level, 0), ledSegments)
	return uint16((uint32(1) << level) - 1)
}

// SignalPresent reports whether the unclamped level reaches the signal threshold.
func SignalPresent(db float64) bool {
	return db >= SignalThresholdDB
}

// automationLabels maps automation modes to the code and label a surface shows.
var automationLabels = map[model.AutomationState]struct {
	code  float64
	label string
}{
	model.AutomationOff:   {0, "Manual"},
	model.AutomationPlay:  {1, "Play"},
	model.AutomationWrite: {2, "Write"},
	model.AutomationTouch: {3, "Touch"},
	model.AutomationLatch: {4, "Latch"},
}

// AutomationLabel returns the numeric code and display label for s.
func AutomationLabel(s model.AutomationState) (code float64, label string, ok bool) {
	e, ok := automationLabels[s]
	return e.code, e.label, ok
}

// placeholder returns the link-wait text for a slot. missing is the number
// of linked surfaces still absent.
func placeholder(slot, missing uint32) (string, bool) {
	switch slot {
	case 1:
		return "Device", true
	case 2:
		return fmt.Sprintf("%d", missing), true
	case 3:
		return "Missing", true
	case 4:
		return "from", true
	case 5:
		return "Linkset", true
	default:
		return "", false
	}
}
