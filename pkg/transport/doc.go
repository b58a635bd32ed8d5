// Package transport delivers feedback messages to control surfaces over OSC.
//
// A Dispatcher owns one bounded queue and one delivery goroutine (Run). Each
// surface slot gets an Endpoint, the wire.Sink its observer writes to.
// Endpoint.Send never blocks: when the queue is full the message is dropped
// and counted, so a slow network can never stall the mixing engine.
//
// # Addressing
//
// Remote surfaces are given as URLs:
//
//	osc.udp://192.168.1.20:8000/
//
// The slot id travels either as the first OSC argument (default) or as a
// trailing path component when Config.IDInPath is set:
//
//	/strip/mute ,if  3 1.0      argument form
//	/strip/mute/3 ,f 1.0        path form
//
// # Routing
//
// Unicast messages go to the endpoint that produced them. Broadcast
// messages go once to every distinct remote address with an open endpoint.
// All deliveries happen on the Run goroutine, so messages leave in the
// order they were queued.
package transport
