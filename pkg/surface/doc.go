// Package surface manages the strip observers of one control surface.
//
// A Surface owns one feedback.Observer per slot, each writing to its own
// transport.Endpoint. Callers decide which strip appears in which slot
// (bank policy lives outside this package) and call Assign; the Surface
// creates observers on first use, rebinds them afterwards, fans surface-wide
// settings out to every slot and drives the periodic tick.
//
//	d := transport.NewDispatcher(transport.Config{})
//	go d.Run(ctx)
//
//	s, err := surface.New(surface.Config{
//	    RemoteURL: "osc.udp://192.168.1.20:8000/",
//	    Feedback:  feedback.Config{Flags: feedback.FlagButtons | feedback.FlagLevels},
//	}, d)
//	s.AssignAll(strips, false)
//	go s.Run(ctx)
package surface
