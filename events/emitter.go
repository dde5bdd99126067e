package events

import (
	"context"

	"github.com/skillsenselab/speakerline/logger"
	"github.com/skillsenselab/speakerline/sentence"
)

// Emitter is the single exit point for finalized and patched sentences.
// Every emission reaches the stream's SSE subscribers; the Kafka sink
// is best-effort and never blocks the pipeline on failure.
type Emitter struct {
	hub  *Hub
	sink *KafkaSink
	log  *logger.Logger
}

// NewEmitter creates an emitter. sink may be nil when Kafka is disabled.
func NewEmitter(hub *Hub, sink *KafkaSink, log *logger.Logger) *Emitter {
	return &Emitter{hub: hub, sink: sink, log: log.WithComponent("events.emitter")}
}

// Emit publishes one attributed sentence.
func (e *Emitter) Emit(ctx context.Context, ss sentence.SpeakerSentence) {
	ev := FromSentence(ss)
	data, err := ev.Marshal()
	if err != nil {
		e.log.Error("marshal sentence event failed", logger.ErrorFields("marshal", err))
		return
	}

	e.hub.Broadcast(ev.StreamID, data)

	if e.sink != nil {
		if err := e.sink.Publish(ctx, ev, data); err != nil {
			e.log.Warn("kafka publish failed", logger.ErrorFields("publish", err))
		}
	}

	e.log.Debug("sentence emitted", logger.Fields(
		logger.FieldSentence, ev.ID,
		logger.FieldStream, ev.StreamID,
		logger.FieldLabel, ev.Label,
		"type", ev.Type,
	))
}
