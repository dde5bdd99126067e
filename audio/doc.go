// Package audio provides the sample-indexed primitives of the pipeline:
// monotonic sample ranges, raw PCM chunks, the bounded-retention ring
// buffer, and the chunker that slices an incoming stream into fixed
// 20ms frames and overlapping diarization windows.
//
// All positions are integer sample offsets from stream start, never
// wall-clock time. Audio is signed 16-bit little-endian mono PCM.
package audio
