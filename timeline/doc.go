// Package timeline maintains the stabilized speaker timeline: a
// run-length-encoded, non-overlapping interval list mapping sample
// ranges to speaker labels.
//
// Raw diarization frames are noisy at frame granularity; committing
// every flip would make captions twitch between speakers. The stabilizer
// therefore requires sustained evidence before a label switch: the
// challenger must have held for a confirmation period, the incumbent
// must have held a minimum turn, a cooldown must have elapsed since the
// previous switch, and the challenger's confidence must beat the
// incumbent's by a margin. All four at once, or no switch.
//
// Patches (refined diarization over already-processed audio) overwrite
// the affected range, re-run through the same stabilization rule, gated
// by a monotonically increasing version per stream.
package timeline
