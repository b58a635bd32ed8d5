// Package examples provides a reference mixing engine for driving control
// surfaces without a real audio engine.
//
// Mixer holds tracks and buses built from model.Channel. It hands out banks
// of strips for a surface, supports adding, removing and selecting channels,
// and can simulate metering and gain automation playback:
//
//	mixer := examples.NewMixer(examples.MixerConfig{Tracks: 12, Buses: 4})
//	_ = surf.AssignAll(mixer.Bank(1, 8), false)
//	mixer.SimulateStep()
//
// Snapshot and Restore move the channel list in and out of a
// persistence.SessionState.
package examples
