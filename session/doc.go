// Package session runs the per-stream pipeline: audio ingest into the
// ring buffer, VAD framing, diarization windows into the stabilized
// timeline, transcription into the sentence assembler, attribution,
// voice identity resolution, stitching, and emission.
//
// The Orchestrator owns all live streams. Each Stream runs four
// workers (audio, diarize, transcribe, assembly) connected by bounded
// queues; a full queue sheds load instead of blocking ingest, with
// per-queue drop preferences that protect patches and final segments.
package session
