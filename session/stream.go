package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

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

// diarJob is one unit of diarization work. Preview windows are
// droppable under pressure; refinement jobs are not.
type diarJob struct {
	window audio.Window
	refine bool
}

// asmJob is one unit of assembly work.
type asmJob struct {
	segment *transcribe.Segment
	pause   *vad.Pause
	patched *audio.SampleRange
}

// Stream is one live audio session's pipeline.
type Stream struct {
	id         string
	sampleRate int
	cfg        Config
	log        *logger.Logger
	metrics    *observability.PipelineMetrics
	emitter    *events.Emitter
	onNudge    func(sentence.SpeakerSentence)

	ring    *audio.RingBuffer
	chunker *audio.Chunker
	store   *timeline.Store

	detector *vad.Detector
	diar     *diarize.Adapter
	trans    *transcribe.Adapter

	assembler *sentence.Assembler
	attr      *sentence.Attributor
	stitcher  *sentence.Stitcher
	reattr    *sentence.Reattributor
	gate      *coach.Gate
	matcher   *voiceid.Matcher

	rawQ  *queue[audio.Chunk]
	diarQ *queue[diarJob]
	txQ   *queue[audio.SampleRange]
	asmQ  *queue[asmJob]

	writeHead atomic.Int64
	done      chan struct{}
	wg        sync.WaitGroup
	endOnce   sync.Once
}

// ID returns the stream identifier.
func (s *Stream) ID() string { return s.id }

// SampleRate returns the stream's sample rate in Hz.
func (s *Stream) SampleRate() int { return s.sampleRate }

// Timeline returns the stabilized speaker spans intersecting r.
func (s *Stream) Timeline(r audio.SampleRange) []timeline.Span {
	return s.store.Query(r)
}

// TimelineStats reports the stream's timeline counters.
func (s *Stream) TimelineStats() timeline.Stats {
	return s.store.Stats()
}

// PushAudio accepts one chunk of s16le mono PCM from the ingest
// surface. It never blocks: under pressure the oldest buffered chunk is
// shed, since fresh audio is worth more than stale audio.
func (s *Stream) PushAudio(pcm []byte) {
	if len(pcm) < audio.BytesPerSample {
		return
	}
	n := int64(len(pcm) / audio.BytesPerSample)
	start := s.writeHead.Add(n) - n
	chunk := audio.Chunk{
		StreamID: s.id,
		Range:    audio.SampleRange{Start: start, End: start + n},
		PCM:      pcm,
	}
	if dropped := s.rawQ.push(chunk, dropAny); dropped > 0 {
		s.metrics.RecordDrop(context.Background(), s.id, "raw", int64(dropped))
	}
}

// start launches the stream's workers.
func (s *Stream) start() {
	s.wg.Add(4)
	go s.audioWorker()
	go s.diarizeWorker()
	go s.transcribeWorker()
	go s.assemblyWorker()
	if s.cfg.RefineInterval > 0 {
		s.wg.Add(1)
		go s.refineTicker()
	}
}

// end shuts the pipeline down and flushes what is still open.
func (s *Stream) end(ctx context.Context) {
	s.endOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		s.rawQ.close()
		s.diarQ.close()
		s.txQ.close()
		s.asmQ.close()

		// Teardown flush: the open buffer becomes a final sentence if
		// it carries enough text, then the stitcher releases its
		// pending fragment.
		for _, sn := range s.assembler.Flush() {
			s.handleSentence(ctx, sn)
		}
		for _, ss := range s.stitcher.Flush() {
			s.release(ctx, ss)
		}
		s.log.Info("stream ended", logger.Fields(
			logger.FieldSamples, s.writeHead.Load(),
		))
	})
}

// audioWorker moves ingest chunks into the ring buffer and fans frames
// and windows out to the detection stages.
func (s *Stream) audioWorker() {
	defer s.wg.Done()
	for {
		chunk, ok := s.rawQ.pop(s.done)
		if !ok {
			return
		}
		s.ring.Write(chunk)
		frames, windows := s.chunker.Advance()

		for _, f := range frames {
			regions, pauses := s.detector.ProcessFrame(f)
			for _, reg := range regions {
				if dropped := s.txQ.push(reg.Range, dropAny); dropped > 0 {
					s.metrics.RecordDrop(context.Background(), s.id, "transcribe", int64(dropped))
				}
			}
			for _, p := range pauses {
				pp := p
				job := asmJob{pause: &pp}
				if dropped := s.asmQ.push(job, droppableAsm); dropped > 0 {
					s.metrics.RecordDrop(context.Background(), s.id, "assembly", int64(dropped))
				}
			}
		}
		for _, w := range windows {
			job := diarJob{window: w}
			if dropped := s.diarQ.push(job, droppablePreview); dropped > 0 {
				s.metrics.RecordDrop(context.Background(), s.id, "diarize", int64(dropped))
			}
		}
	}
}

// diarizeWorker feeds windows to the engine and merges the results into
// the stabilized timeline. Refinement jobs produce patches.
func (s *Stream) diarizeWorker() {
	defer s.wg.Done()
	ctx := context.Background()
	for {
		job, ok := s.diarQ.pop(s.done)
		if !ok {
			return
		}
		if job.refine {
			s.runRefine(ctx)
			continue
		}

		frames := s.diar.ProcessWindow(ctx, job.window)
		if len(frames) == 0 {
			continue
		}
		before := s.store.Stats().Switches
		s.store.ApplyFrames(frames)
		after := s.store.Stats()
		s.metrics.RecordFramesApplied(ctx, s.id, int64(len(frames)))
		if d := after.Switches - before; d > 0 {
			s.metrics.RecordSwitches(ctx, s.id, int64(d))
		}
	}
}

// runRefine re-diarizes the trailing refinement window and applies the
// resulting patch. Applied patches trigger re-attribution.
func (s *Stream) runRefine(ctx context.Context) {
	head := s.ring.Head()
	span := audio.SampleRange{
		Start: head - audio.MSToSamples(s.cfg.RefineWindow.Milliseconds(), s.sampleRate),
		End:   head,
	}
	pcm, actual := s.ring.Read(span)
	if actual.Empty() || len(pcm) == 0 {
		return
	}

	patch := s.diar.Refine(ctx, actual, pcm)
	if patch == nil {
		return
	}
	applied := s.store.ApplyPatch(*patch)
	s.metrics.RecordPatch(ctx, s.id, applied)
	if !applied {
		return
	}
	r := patch.Range
	job := asmJob{patched: &r}
	if dropped := s.asmQ.push(job, droppableAsm); dropped > 0 {
		s.metrics.RecordDrop(ctx, s.id, "assembly", int64(dropped))
	}
}

// refineTicker schedules periodic refinement jobs.
func (s *Stream) refineTicker() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.RefineInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.diarQ.push(diarJob{refine: true}, dropNone)
		}
	}
}

// transcribeWorker turns detected speech regions into transcript
// segments for the assembler.
func (s *Stream) transcribeWorker() {
	defer s.wg.Done()
	ctx := context.Background()
	for {
		span, ok := s.txQ.pop(s.done)
		if !ok {
			return
		}
		pcm, actual := s.ring.Read(span)
		if actual.Empty() || len(pcm) == 0 {
			continue
		}
		for _, seg := range s.trans.ProcessAudio(ctx, actual, pcm) {
			sg := seg
			job := asmJob{segment: &sg}
			if dropped := s.asmQ.push(job, droppableAsm); dropped > 0 {
				s.metrics.RecordDrop(ctx, s.id, "assembly", int64(dropped))
			}
		}
	}
}

// assemblyWorker owns everything downstream of the timeline: sentence
// assembly, attribution, voice identity, stitching, re-attribution, and
// emission. Single-threaded by design.
func (s *Stream) assemblyWorker() {
	defer s.wg.Done()
	ctx := context.Background()
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		// Timer events interleave with queue work so assembler timeouts
		// fire even while segments flow.
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.handleTick(ctx)
			continue
		default:
		}

		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.handleTick(ctx)
		case <-s.asmQ.ready():
			for {
				job, ok := s.asmQ.tryPop()
				if !ok {
					break
				}
				s.handleAsmJob(ctx, job)
			}
		}
	}
}

func (s *Stream) handleAsmJob(ctx context.Context, job asmJob) {
	switch {
	case job.segment != nil:
		for _, sn := range s.assembler.OnSegment(*job.segment) {
			s.handleSentence(ctx, sn)
		}
	case job.pause != nil:
		startMS := audio.SamplesToMS(job.pause.Range.Start, s.sampleRate)
		for _, sn := range s.assembler.OnPause(*job.pause, startMS) {
			s.handleSentence(ctx, sn)
		}
	case job.patched != nil:
		for _, ss := range s.reattr.OnPatch(*job.patched) {
			s.emit(ctx, ss)
		}
	}
}

func (s *Stream) handleTick(ctx context.Context) {
	nowMS := audio.SamplesToMS(s.ring.Head(), s.sampleRate)
	for _, sn := range s.assembler.Tick(nowMS) {
		s.handleSentence(ctx, sn)
	}
	// A pending stitch candidate whose merge window has passed can no
	// longer combine with anything; let it go.
	if dl := s.stitcher.PendingDeadlineMS(); dl >= 0 && nowMS > dl {
		for _, ss := range s.stitcher.Flush() {
			s.release(ctx, ss)
		}
	}
}

// handleSentence runs one finalized sentence through attribution and
// voice identity, then offers it to the stitcher.
func (s *Stream) handleSentence(ctx context.Context, sn sentence.Sentence) {
	ss := s.attr.Attribute(sn)
	ss.Label = s.resolveIdentity(ctx, ss.Label, sn)
	ss.Flags.VoiceID = ss.Label.Kind == diarize.KindResolved

	for _, out := range s.stitcher.Push(ss) {
		s.release(ctx, out)
	}
}

// resolveIdentity maps an engine label to a durable identity using the
// sentence's audio span.
func (s *Stream) resolveIdentity(ctx context.Context, label diarize.Label, sn sentence.Sentence) diarize.Label {
	if !label.Resolvable() {
		return label
	}
	span := audio.RangeFromMS(sn.StartMS, sn.EndMS, s.sampleRate)
	pcm, _ := s.ring.Read(span)
	resolved, err := s.matcher.Resolve(ctx, label, pcm, s.sampleRate)
	if err != nil {
		s.log.Warn("voice identity resolution failed", logger.ErrorFields("resolve", err))
		return label
	}
	return resolved
}

// release finishes one sentence: record it for re-attribution, emit it,
// and offer it to the coach gate.
func (s *Stream) release(ctx context.Context, ss sentence.SpeakerSentence) {
	s.reattr.Track(ss)
	s.emit(ctx, ss)
	if s.gate.Admit(ss) && s.onNudge != nil {
		s.onNudge(ss)
	}
}

func (s *Stream) emit(ctx context.Context, ss sentence.SpeakerSentence) {
	s.emitter.Emit(ctx, ss)

	typ := events.TypeSentence
	if ss.Flags.Patched {
		typ = events.TypeSentencePatch
	}
	latencyMS := audio.SamplesToMS(s.ring.Head(), s.sampleRate) - ss.EndMS
	if latencyMS < 0 {
		latencyMS = 0
	}
	s.metrics.RecordSentence(ctx, s.id, typ, time.Duration(latencyMS)*time.Millisecond)
}

// droppablePreview marks preview diarization windows as sheddable.
func droppablePreview(j diarJob) bool { return !j.refine }

// droppableAsm marks non-final transcript segments as sheddable; pauses
// and patches always stay.
func droppableAsm(j asmJob) bool {
	return j.segment != nil && !j.segment.Final
}
