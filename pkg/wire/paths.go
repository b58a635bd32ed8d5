package wire

// Strip feedback paths.
const (
	PathName          = "/strip/name"
	PathHide          = "/strip/hide"
	PathMute          = "/strip/mute"
	PathSolo          = "/strip/solo"
	PathSoloIsolate   = "/strip/solo_iso"
	PathSoloSafe      = "/strip/solo_safe"
	PathRecEnable     = "/strip/recenable"
	PathRecSafe       = "/strip/record_safe"
	PathMonitorInput  = "/strip/monitor_input"
	PathMonitorDisk   = "/strip/monitor_disk"
	PathSelect        = "/strip/select"
	PathGUISelect     = "/strip/gui_select"
	PathFader         = "/strip/fader"
	PathGain          = "/strip/gain"
	PathTrim          = "/strip/trimdB"
	PathPan           = "/strip/pan_stereo_position"
	PathMeter         = "/strip/meter"
	PathSignal        = "/strip/signal"
	PathExpand        = "/strip/expand"
	suffixAutomation  = "/automation"
	suffixAutomationN = "/automation_name"
)

// AutomationPath returns the automation-mode path under base
// (PathFader or PathGain).
func AutomationPath(base string) string {
	return base + suffixAutomation
}

// AutomationNamePath returns the automation-label path under base.
func AutomationNamePath(base string) string {
	return base + suffixAutomationN
}
