// Package subscription holds the change-notification bindings a feedback
// observer keeps against one mixer strip.
//
// # Ownership
//
// Every binding registered with the engine is wrapped in a Subscription and
// owned by exactly one Set. Releasing the Set (DropAll) disconnects every
// binding deterministically; nothing relies on garbage collection or on the
// engine noticing that a consumer went away.
//
// # Rebinding
//
// When the observed strip changes, the observer calls DropAll before adding
// the first binding for the new strip, so a Set never mixes bindings for two
// different strips.
package subscription
