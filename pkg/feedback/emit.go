package feedback

import (
	"github.com/oscstrip/oscstrip-go/pkg/model"
	"github.com/oscstrip/oscstrip-go/pkg/wire"
)

// subscribe registers for every notification the configured flags need and
// sends each value once. Called with o.mu held and o.state == StateBound.
func (o *Observer) subscribe(strip model.Strip) {
	o.subs.Add("drop_references", strip.OnDropReferences(func() { o.dropStrip(strip) }))

	if o.cfg.Flags.Has(FlagButtons) {
		o.watchProperty(model.PropertyName, wire.PathName, o.sendName)
		o.sendName()
		o.watchProperty(model.PropertyHidden, wire.PathHide, o.sendHidden)
		o.sendHidden()

		o.watchControl(wire.PathMute, strip.Mute())
		o.watchControl(wire.PathSolo, strip.Solo())
		o.watchControl(wire.PathSoloIsolate, strip.SoloIsolate())
		o.watchControl(wire.PathSoloSafe, strip.SoloSafe())

		if mon := strip.Monitoring(); mon != nil {
			o.subs.Add("monitoring", mon.OnChange(o.guarded(func() { o.sendMonitor(mon) })))
			o.sendMonitor(mon)
		}

		o.watchControl(wire.PathRecEnable, strip.RecEnable())
		o.watchControl(wire.PathRecSafe, strip.RecSafe())

		o.watchProperty(model.PropertySelected, wire.PathSelect, o.sendSelect)
		o.sendSelect()
	}

	if o.cfg.Flags.Has(FlagLevels) {
		gain := strip.Gain()
		o.subs.Add("gain_automation", gain.OnAutomationStateChange(o.guarded(o.automationChanged)))
		o.subs.Add(o.gainPath(), gain.OnChange(o.guarded(o.sendGain)))
		o.sendAutomation()

		if trim := strip.Trim(); trim != nil {
			o.subs.Add(wire.PathTrim, trim.OnChange(o.guarded(o.sendTrim)))
			o.sendTrim()
		}

		o.watchControl(wire.PathPan, strip.Pan())
	}
}

// guarded wraps an engine callback for the strip bound now. It is dropped
// while a rebind is in progress or once another strip is bound, and
// otherwise runs under the observer lock. Called with o.mu held.
func (o *Observer) guarded(fn func()) func() {
	bound := o.strip
	return func() {
		if o.initializing.Load() {
			return
		}
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.initializing.Load() || o.state != StateBound || o.strip != bound {
			return
		}
		fn()
	}
}

func (o *Observer) watchProperty(prop model.PropertyChange, name string, send func()) {
	handler := o.guarded(send)
	o.subs.Add(name, o.strip.OnPropertyChange(func(pc model.PropertyChange) {
		if pc.Contains(prop) {
			handler()
		}
	}))
}

// watchControl sends ctrl's interface value on path now and on every change.
// A nil control is skipped.
func (o *Observer) watchControl(path string, ctrl model.Control) {
	if ctrl == nil {
		return
	}
	send := func() { o.sendControl(path, ctrl) }
	o.subs.Add(path, ctrl.OnChange(o.guarded(send)))
	send()
}

func (o *Observer) send(path string, v wire.Value) {
	if o.closed {
		return
	}
	o.sink.Send(wire.Message{
		Path:    path,
		SlotID:  o.slotID,
		Payload: v,
		Routing: o.cfg.Routing,
	})
}

func (o *Observer) sendControl(path string, ctrl model.Control) {
	o.send(path, wire.Float(ctrl.InternalToInterface(ctrl.Value())))
}

func (o *Observer) sendName() {
	o.send(wire.PathName, wire.Text(o.strip.Name()))
}

func (o *Observer) sendHidden() {
	o.send(wire.PathHide, wire.BoolInt(o.strip.Hidden()))
}

func (o *Observer) sendSelect() {
	if o.strip == nil {
		return
	}
	o.send(wire.PathSelect, wire.Bool(o.strip.Selected()))
}

func (o *Observer) sendMonitor(mon model.Control) {
	var input, disk bool
	switch int(mon.Value()) {
	case int(model.MonitorInput):
		input = true
	case int(model.MonitorDisk):
		disk = true
	case int(model.MonitorCue):
		input, disk = true, true
	}
	o.send(wire.PathMonitorInput, wire.BoolInt(input))
	o.send(wire.PathMonitorDisk, wire.BoolInt(disk))
}

func (o *Observer) gainPath() string {
	if o.cfg.GainMode.HasFader() {
		return wire.PathFader
	}
	return wire.PathGain
}

// sendGain transmits gain when it differs from the last value sent.
func (o *Observer) sendGain() {
	gain := o.strip.Gain()
	v := gain.Value()
	if v == o.snap.gain {
		return
	}
	o.snap.gain = v

	mode := o.cfg.GainMode
	if mode.HasFader() {
		o.send(wire.PathFader, wire.Float(gain.InternalToInterface(v)))
		if mode == GainFaderName {
			o.send(wire.PathName, wire.Text(FormatGainDB(v)))
			o.gainNameTimeout = GainNameTicks
		}
	}
	if mode.HasDB() {
		o.send(wire.PathGain, wire.Float(GainToDB(v)))
	}
}

func (o *Observer) sendTrim() {
	trim := o.strip.Trim()
	v := trim.Value()
	if v == o.snap.trim {
		return
	}
	o.snap.trim = v
	o.send(wire.PathTrim, wire.Float(GainToDB(v)))
}

// automationChanged refreshes the gain value alongside the new mode.
func (o *Observer) automationChanged() {
	o.snap.gain = unsent
	o.sendAutomation()
}

// sendAutomation sends gain, then records and reports the automation mode.
func (o *Observer) sendAutomation() {
	o.sendGain()
	o.automation = o.strip.Gain().AutomationState()

	code, label, ok := AutomationLabel(o.automation)
	if !ok {
		o.logger.Warn("unknown automation state", "slot", o.slotID, "state", uint8(o.automation))
		return
	}
	base := o.gainPath()
	o.send(wire.AutomationPath(base), wire.Float(code))
	o.send(wire.AutomationNamePath(base), wire.Text(label))
}

// clear sends the neutral burst for an empty slot and resets the cache.
func (o *Observer) clear() {
	o.snap.reset()
	o.gainNameTimeout = 0

	flags := o.cfg.Flags
	fader := o.cfg.GainMode.HasFader()

	o.send(wire.PathExpand, wire.Float(0))

	if flags.Has(FlagButtons) {
		o.send(wire.PathName, wire.Text(" "))
		o.send(wire.PathMute, wire.Float(0))
		o.send(wire.PathSolo, wire.Float(0))
		o.send(wire.PathRecEnable, wire.Float(0))
		o.send(wire.PathRecSafe, wire.Float(0))
		o.send(wire.PathMonitorInput, wire.Int(0))
		o.send(wire.PathMonitorDisk, wire.Int(0))
		o.send(wire.PathGUISelect, wire.Float(0))
		o.send(wire.PathSelect, wire.Float(0))
	}

	if flags.Has(FlagLevels) {
		if fader {
			o.send(wire.PathFader, wire.Float(0))
		} else {
			o.send(wire.PathGain, wire.Float(SilenceDB))
		}
		o.send(wire.PathTrim, wire.Float(0))
		o.send(wire.PathPan, wire.Float(0.5))
	}

	if flags.Has(FlagSignal) {
		o.send(wire.PathSignal, wire.Float(0))
	}

	switch {
	case flags.Has(FlagMeter) && fader:
		o.send(wire.PathMeter, wire.Float(0))
	case flags.Has(FlagMeter):
		o.send(wire.PathMeter, wire.Float(SilenceDB))
	case flags.Has(FlagMeterLED):
		o.send(wire.PathMeter, wire.Int(0))
	}
}

// tick is the body of Tick. Called with o.mu held and a strip bound.
func (o *Observer) tick() {
	flags := o.cfg.Flags

	if flags.Any(FlagMeter | FlagMeterLED | FlagSignal) {
		raw := SilenceDB
		if m := o.strip.PeakMeter(); m != nil {
			raw = m.Level()
		}
		level := ClampMeter(raw)
		if level != o.snap.meter {
			o.snap.meter = level
			o.sendMeter(level)
		}
		if flags.Has(FlagSignal) {
			var present int8
			if SignalPresent(raw) {
				present = 1
			}
			if present != o.snap.signal {
				o.snap.signal = present
				o.send(wire.PathSignal, wire.Bool(present == 1))
			}
		}
	}

	if flags.Has(FlagLevels) {
		if o.gainNameTimeout > 0 {
			if o.gainNameTimeout == 1 {
				o.sendName()
			}
			o.gainNameTimeout--
		}
		if o.automation.IsPlaying() {
			o.sendGain()
		}
	}
}

func (o *Observer) sendMeter(level float64) {
	flags := o.cfg.Flags
	switch {
	case flags.Has(FlagMeter) && o.cfg.GainMode.HasFader():
		o.send(wire.PathMeter, wire.Float(NormalizeMeter(level)))
	case flags.Has(FlagMeter):
		o.send(wire.PathMeter, wire.Float(level))
	case flags.Has(FlagMeterLED):
		o.send(wire.PathMeter, wire.Int(int32(MeterLEDBits(level))))
	}
}
