// Package events carries finalized sentences out of the engine. Every
// emission goes to the stream's SSE subscribers and, when configured,
// to a Kafka topic for downstream consumers.
//
// Two event types exist: ui.sentence for live finalized sentences and
// ui.sentence.patch for amended re-emissions of a sentence already
// sent. A patch reuses the original sentence id; consumers replace in
// place.
package events
