package examples

import (
	"github.com/oscstrip/oscstrip-go/pkg/model"
	"github.com/oscstrip/oscstrip-go/pkg/persistence"
)

// Snapshot captures every channel in display order.
func (m *Mixer) Snapshot() []persistence.ChannelState {
	chs := m.Channels()
	out := make([]persistence.ChannelState, 0, len(chs))
	for _, ch := range chs {
		st := persistence.ChannelState{
			Name:       ch.Name(),
			Bus:        ch.RecEnable() == nil,
			Hidden:     ch.Hidden(),
			Selected:   ch.Selected(),
			Mute:       ch.Mute().Value() >= 0.5,
			Solo:       ch.Solo().Value() >= 0.5,
			Gain:       ch.Gain().Value(),
			Automation: ch.Gain().AutomationState().String(),
		}
		if p, err := ch.Parameter(model.ControlTrim); err == nil {
			v := p.Value()
			st.Trim = &v
		}
		if p, err := ch.Parameter(model.ControlPan); err == nil {
			v := p.Value()
			st.Pan = &v
		}
		if p, err := ch.Parameter(model.ControlRecEnable); err == nil {
			v := p.Value() >= 0.5
			st.RecEnable = &v
		}
		if p, err := ch.Parameter(model.ControlMonitoring); err == nil {
			v := uint8(p.Value())
			st.Monitoring = &v
		}
		out = append(out, st)
	}
	return out
}

// Restore replaces the mixer's channels with the saved ones. Existing
// channels are destroyed first so observers drop their references.
func (m *Mixer) Restore(states []persistence.ChannelState) {
	m.mu.Lock()
	old := m.channels
	m.channels = make([]*model.Channel, 0, len(states))
	for _, st := range states {
		m.channels = append(m.channels, restoreChannel(st))
	}
	m.mu.Unlock()

	for _, ch := range old {
		ch.Destroy()
	}
}

func restoreChannel(st persistence.ChannelState) *model.Channel {
	opts := []model.ChannelOption{model.WithMeter()}
	if !st.Bus {
		opts = append(opts, model.WithTrack(), model.WithSoloIsolate(), model.WithSoloSafe())
	}
	if st.Trim != nil || !st.Bus {
		opts = append(opts, model.WithTrim())
	}
	if st.Pan != nil || !st.Bus {
		opts = append(opts, model.WithPan())
	}

	ch := model.NewChannel(st.Name, opts...)
	ch.SetHidden(st.Hidden)
	ch.SetSelected(st.Selected)
	setParam(ch, model.ControlMute, boolValue(st.Mute))
	setParam(ch, model.ControlSolo, boolValue(st.Solo))
	ch.GainParameter().Set(st.Gain)
	for a := model.AutomationOff; a <= model.AutomationLatch; a++ {
		if a.String() == st.Automation {
			ch.GainParameter().SetAutomationState(a)
			break
		}
	}

	if st.Trim != nil {
		setParam(ch, model.ControlTrim, *st.Trim)
	}
	if st.Pan != nil {
		setParam(ch, model.ControlPan, *st.Pan)
	}
	if st.RecEnable != nil {
		setParam(ch, model.ControlRecEnable, boolValue(*st.RecEnable))
	}
	if st.Monitoring != nil {
		setParam(ch, model.ControlMonitoring, float64(*st.Monitoring))
	}
	return ch
}

func setParam(ch *model.Channel, id model.ControlID, v float64) {
	if p, err := ch.Parameter(id); err == nil {
		p.Set(v)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
