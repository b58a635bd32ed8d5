// Package log provides structured feedback capture.
//
// This package defines the Logger interface and Event types for recording
// what the strip observers emit and how the transport handled it. It is
// separate from operational logging (slog): a capture is a complete,
// machine-readable trace of the feedback stream that can be replayed and
// filtered after the fact.
//
// # Basic Usage
//
//	// Console during development
//	capture := log.NewSlogAdapter(slog.Default())
//
//	// Binary file
//	capture, _ := log.NewFileLogger("/tmp/surface.oslog")
//
//	// Both
//	capture := log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fileLogger)
//
// Wrap an observer's sink with NewCaptureSink to record every message it
// sends.
//
// # File Format
//
// Capture files are a plain sequence of CBOR-encoded events with integer
// keys, conventionally named *.oslog. The oscstrip-log tool views and
// summarizes them.
package log
