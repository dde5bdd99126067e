// Package diarize defines the diarization provider interface, the label
// type used across the pipeline, and the adapter that normalizes engine
// output into sample-indexed frames and patches.
//
// The engine itself is a black box behind the Provider interface; the
// pyannote-style HTTP sidecar, an on-box model, or a mock all plug in
// through the same contract. The adapter owns everything the engine does
// not: sample indexing, label parsing, range clamping, patch versioning,
// and failure isolation (an engine error yields absent frames, never a
// pipeline error).
package diarize
