// Package transcribe defines the transcription provider interface and
// the adapter that normalizes engine output into millisecond-ranged text
// segments.
//
// The engine provides no word timestamps and no speaker information;
// segments are the finest granularity available, which is why attribution
// downstream is sentence-level. Partial (non-final) segments may be
// superseded by later output for the same audio; only final segments are
// guaranteed stable.
package transcribe
