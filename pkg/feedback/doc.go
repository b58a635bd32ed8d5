// Package feedback mirrors mixer strips onto control-surface slots.
//
// An Observer watches one strip on behalf of one slot. It subscribes to the
// strip's notifications, keeps the last value sent for continuously varying
// parameters, and turns every relevant change into a wire.Message handed to
// a wire.Sink. Meters are polled by Tick; everything else is event driven.
//
// # States
//
// An Observer is always in exactly one State:
//
//   - StateBound: a strip is mirrored and subscriptions are live.
//   - StateUnbound: nothing is shown. Entered by binding a nil strip, by
//     Clear, or when the bound strip is destroyed. Only the first two send
//     the neutral burst; a destroyed strip leaves the slot silent until the
//     next Bind.
//   - StateLinkWait: the slot shows one word of a placeholder phrase while a
//     link set of surfaces assembles. The strip to show afterwards is
//     remembered but not observed.
//
// # Concurrency
//
// Engine callbacks, Tick and the binding methods may run on different
// goroutines. A binding operation raises an initializing flag that makes
// callbacks and ticks return early, waits briefly for a running Tick, and
// then holds the observer lock for its whole body. The driver should still
// call Tick for a given observer from one goroutine at a time.
package feedback
