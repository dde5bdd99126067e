// Package resilience provides the fault-tolerance patterns used around
// the external diarization and transcription engines: a circuit breaker
// that stops hammering a failing engine, and bounded retry with
// exponential backoff for transient errors.
//
// When the breaker is open the caller treats the engine's output as
// absent for the affected window and the pipeline continues; see the
// session orchestrator for the degradation behavior.
package resilience
