// Package provider implements a small generic framework for swappable
// engine backends. Diarization, transcription, and voice embedding all
// talk to external engines (sidecars in production, mocks in tests);
// this package gives each of them a named factory registry and a
// priority selector that falls back to the next available backend.
//
// Usage:
//
//	reg := provider.NewRegistry[diarize.Provider]()
//	reg.RegisterFactory("pyannote", pyannoteFactory)
//	reg.RegisterFactory("mock", mockFactory)
//	p, _ := reg.Create("pyannote", cfg)
package provider
