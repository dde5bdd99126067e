// Package vad implements frame-level voice activity and pause detection.
//
// The detector consumes fixed 20ms PCM frames and emits speech regions
// and pause events, both sample-indexed. A short energy dip does not end
// a speech region: a hangover window keeps the detector in speech until
// silence has persisted. A pause event is emitted when silence first
// reaches the minimum pause duration, and again when it crosses the
// "obvious" threshold, so downstream sentence splitting never has to
// wait for speech to resume.
package vad
