// Package persistence saves and restores simulator sessions.
//
// A session is the mixer's channel list with its control values, plus the
// bank and expanded slot the surface was showing. It is stored as JSON.
package persistence
