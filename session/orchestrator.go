package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/skillsenselab/speakerline/audio"
	"github.com/skillsenselab/speakerline/coach"
	"github.com/skillsenselab/speakerline/diarize"
	"github.com/skillsenselab/speakerline/events"
	"github.com/skillsenselab/speakerline/logger"
	"github.com/skillsenselab/speakerline/observability"
	"github.com/skillsenselab/speakerline/sentence"
	"github.com/skillsenselab/speakerline/timeline"
	"github.com/skillsenselab/speakerline/transcribe"
	"github.com/skillsenselab/speakerline/vad"
	"github.com/skillsenselab/speakerline/voiceid"
)

// Deps carries the shared backends every stream uses.
type Deps struct {
	Diarizer    diarize.Provider
	Transcriber transcribe.Provider
	Embedder    voiceid.Provider
	Profiles    []voiceid.Profile
	Assignments voiceid.AssignmentStore
	Emitter     *events.Emitter
	Metrics     *observability.PipelineMetrics

	// OnNudge receives sentences the coach gate admits. Optional.
	OnNudge func(sentence.SpeakerSentence)
}

// Orchestrator owns all live streams.
type Orchestrator struct {
	cfg  Config
	deps Deps
	log  *logger.Logger

	mu      sync.Mutex
	streams map[string]*Stream
	closed  bool
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(cfg Config, deps Deps, log *logger.Logger) *Orchestrator {
	cfg.ApplyDefaults()
	return &Orchestrator{
		cfg:     cfg,
		deps:    deps,
		log:     log.WithComponent("session"),
		streams: make(map[string]*Stream),
	}
}

// StartSession opens a new stream. sampleRate of 0 uses the configured
// default.
func (o *Orchestrator) StartSession(ctx context.Context, sampleRate int) (*Stream, error) {
	if sampleRate == 0 {
		sampleRate = o.cfg.SampleRate
	}
	if sampleRate < 8000 || sampleRate > 48000 {
		return nil, fmt.Errorf("unsupported sample rate %d", sampleRate)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil, fmt.Errorf("orchestrator is shut down")
	}

	s := o.buildStream(uuid.NewString(), sampleRate)
	o.streams[s.id] = s
	s.start()
	o.deps.Metrics.StreamOpened(ctx)
	o.log.Info("session started", logger.Fields(
		logger.FieldStream, s.id,
		"sample_rate", sampleRate,
	))
	return s, nil
}

// Stream returns a live stream by id.
func (o *Orchestrator) Stream(id string) (*Stream, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.streams[id]
	return s, ok
}

// EndSession tears a stream down, flushing its open sentence state.
func (o *Orchestrator) EndSession(ctx context.Context, id string) error {
	o.mu.Lock()
	s, ok := o.streams[id]
	if ok {
		delete(o.streams, id)
	}
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown stream %q", id)
	}

	s.end(ctx)
	o.deps.Metrics.StreamClosed(ctx)
	return nil
}

// Close ends every live stream. Used at process shutdown.
func (o *Orchestrator) Close(ctx context.Context) {
	o.mu.Lock()
	streams := make([]*Stream, 0, len(o.streams))
	for _, s := range o.streams {
		streams = append(streams, s)
	}
	o.streams = make(map[string]*Stream)
	o.closed = true
	o.mu.Unlock()

	for _, s := range streams {
		s.end(ctx)
		o.deps.Metrics.StreamClosed(ctx)
	}
}

// buildStream wires one stream's full pipeline.
func (o *Orchestrator) buildStream(id string, sampleRate int) *Stream {
	cfg := o.cfg.forRate(sampleRate)
	log := o.log.WithStream(id)

	ring := audio.NewRingBuffer(audio.MSToSamples(cfg.RingRetention.Milliseconds(), sampleRate))
	store := timeline.NewStore(cfg.Timeline)

	s := &Stream{
		id:         id,
		sampleRate: sampleRate,
		cfg:        cfg,
		log:        log,
		metrics:    o.deps.Metrics,
		emitter:    o.deps.Emitter,
		onNudge:    o.deps.OnNudge,

		ring:    ring,
		chunker: audio.NewChunker(cfg.Chunker, ring),
		store:   store,

		detector: vad.NewDetector(cfg.VAD),
		diar:     diarize.NewAdapter(o.deps.Diarizer, cfg.Diarize),
		trans:    transcribe.NewAdapter(o.deps.Transcriber, cfg.Transcribe),

		assembler: sentence.NewAssembler(id, cfg.Assembler),
		stitcher:  sentence.NewStitcher(cfg.Stitcher, log),
		gate:      coach.NewGate(cfg.Gate),
		matcher:   voiceid.NewMatcher(id, o.deps.Embedder, o.deps.Profiles, o.deps.Assignments, cfg.Matcher, log),

		rawQ:  newQueue[audio.Chunk](cfg.RawQueue),
		diarQ: newQueue[diarJob](cfg.DiarizeQueue),
		txQ:   newQueue[audio.SampleRange](cfg.RawQueue),
		asmQ:  newQueue[asmJob](cfg.SegmentQueue),

		done: make(chan struct{}),
	}

	s.attr = sentence.NewAttributor(store, cfg.Attributor)
	s.reattr = sentence.NewReattributor(s.attr, cfg.Reattributor, log)
	s.reattr.SetResolver(func(l diarize.Label, sn sentence.Sentence) diarize.Label {
		return s.resolveIdentity(context.Background(), l, sn)
	})
	return s
}
