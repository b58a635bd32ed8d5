// Package model describes the mixing engine as seen by a control surface.
//
// # Engine Contract
//
// A Strip is one mixer channel. It exposes its controls (mute, solo, gain,
// trim, pan, ...) through the Control and GainControl interfaces and its
// level through Meter. Every notification source is a Signal: handlers are
// registered with Connect-style methods and removed by calling Disconnect on
// the returned Connection.
//
// Optional controls are reported as nil interfaces. Consumers check for nil
// and skip the feature.
//
// # Lifetime
//
// Strips are owned by the engine. OnDropReferences fires once, just before a
// strip goes away; a consumer holding a Strip must drop every Connection it
// holds on that strip and must not read the strip again.
//
// # Reference Engine
//
// Channel, Parameter, GainParameter and PeakMeter are a complete in-memory
// implementation of the contract. Setters notify synchronously on the calling
// goroutine, outside any internal lock:
//
//	ch := model.NewChannel("Vox", model.WithTrack(), model.WithPan(), model.WithMeter())
//	conn := ch.Mute().OnChange(func() { fmt.Println("mute:", ch.Mute().Value()) })
//	defer conn.Disconnect()
//
//	mute, _ := ch.Parameter(model.ControlMute)
//	mute.Set(1)
package model
