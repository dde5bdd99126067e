// Package sentence turns normalized transcript segments and pause
// events into UI-ready speaker sentences.
//
// The assembler buffers exactly one open sentence per stream and
// finalizes it on the first matching rule: strong punctuation, an
// obvious pause, maximum duration, or maximum length (forced split).
// The attributor then assigns exactly one speaker label per sentence
// from timeline coverage, and the stitcher merges adjacent same-speaker
// fragments. When a diarization patch lands, the reattributor re-runs
// attribution for recently emitted sentences that the patch touches.
//
// A sentence is final the moment it is emitted; there is no provisional
// sentence concept past this package.
package sentence
