package timeline

import (
	"sort"
	"sync"
	"time"

	"github.com/skillsenselab/speakerline/audio"
	"github.com/skillsenselab/speakerline/diarize"
	"github.com/skillsenselab/speakerline/logger"
)

// Span is one stabilized interval of the timeline.
type Span struct {
	Range      audio.SampleRange
	Label      diarize.Label
	Confidence float64
}

// Stats summarizes a store's state for observability.
type Stats struct {
	Intervals      int
	Switches       int
	PatchesApplied int
	PatchesStale   int
	Retained       audio.SampleRange
}

// StoreConfig configures a per-stream timeline store.
type StoreConfig struct {
	SampleRate int
	// Retention bounds how much timeline history is kept (5–15 min).
	Retention  time.Duration
	Stabilizer StabilizerConfig
}

// ApplyDefaults fills zero fields.
func (c *StoreConfig) ApplyDefaults() {
	if c.Retention == 0 {
		c.Retention = 10 * time.Minute
	}
	c.Stabilizer.SampleRate = c.SampleRate
	c.Stabilizer.ApplyDefaults()
}

// Store is the per-stream stabilized speaker timeline. One stream, one
// store; mutation is serialized internally so readers (the attributor)
// and the diarization worker can share it.
type Store struct {
	mu  sync.Mutex
	cfg StoreConfig

	intervals []Span
	stab      *stabilizer
	applied   int64 // high-water mark of applied frame ranges

	patched        []patchMark
	patchesApplied int
	patchesStale   int

	log *logger.Logger
}

// patchMark remembers the version applied over a range so stale patches
// can be rejected.
type patchMark struct {
	rng     audio.SampleRange
	version uint64
}

// NewStore creates a timeline store for one stream.
func NewStore(cfg StoreConfig) *Store {
	cfg.ApplyDefaults()
	return &Store{
		cfg:  cfg,
		stab: newStabilizer(cfg.Stabilizer),
		log:  logger.Get("timeline"),
	}
}

// ApplyFrames runs raw diarization frames through the stabilizer and
// records the committed result. Frames must arrive in order; a range
// that rewinds the stream is clamped to the high-water mark and logged,
// never fatal.
func (s *Store) ApplyFrames(frames []diarize.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range frames {
		r := f.Range
		if r.Start < s.applied {
			s.log.Warn("clamped non-monotonic frame", logger.Fields(
				logger.FieldRangeFrom, r.Start,
				logger.FieldRangeTo, r.End,
				"high_water", s.applied,
			))
			r.Start = s.applied
		}
		if r.Empty() {
			continue
		}
		f.Range = r
		label, conf := s.stab.apply(f)
		s.recordLocked(Span{Range: r, Label: label, Confidence: conf})
		s.applied = r.End
	}
	s.evictLocked()
}

// ApplyPatch overwrites the patch's range with its frames, re-run
// through a fresh stabilization pass (patches can be noisy too). A patch
// whose version is at or below the version already applied to an
// overlapping range is stale and dropped silently. Returns whether the
// patch was applied.
func (s *Store) ApplyPatch(p diarize.Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Range.Empty() || len(p.Frames) == 0 {
		return false
	}
	for _, mark := range s.patched {
		if mark.rng.Overlaps(p.Range) && p.Version <= mark.version {
			s.patchesStale++
			s.log.Debug("rejected stale patch", logger.Fields(
				logger.FieldVersion, p.Version,
				"stored_version", mark.version,
			))
			return false
		}
	}

	// Re-stabilize the patch in isolation.
	ps := newStabilizer(s.cfg.Stabilizer)
	var replacement []Span
	for _, f := range p.Frames {
		r := f.Range.Intersect(p.Range)
		if r.Empty() {
			continue
		}
		f.Range = r
		label, conf := ps.apply(f)
		replacement = appendSpan(replacement, Span{Range: r, Label: label, Confidence: conf})
	}
	if len(replacement) == 0 {
		return false
	}

	s.cutLocked(p.Range)
	for _, span := range replacement {
		s.insertLocked(span)
	}
	s.patched = append(s.patched, patchMark{rng: p.Range, version: p.Version})
	s.patchesApplied++
	s.evictLocked()
	return true
}

// Query returns the stabilized spans intersecting the range, clipped to
// it, in order.
func (s *Store) Query(r audio.SampleRange) []Span {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Span
	for _, span := range s.intervals {
		clipped := span.Range.Intersect(r)
		if clipped.Empty() {
			continue
		}
		out = append(out, Span{Range: clipped, Label: span.Label, Confidence: span.Confidence})
	}
	return out
}

// Stats returns a snapshot of store counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Intervals:      len(s.intervals),
		Switches:       s.stab.switches,
		PatchesApplied: s.patchesApplied,
		PatchesStale:   s.patchesStale,
	}
	if len(s.intervals) > 0 {
		st.Retained = audio.SampleRange{
			Start: s.intervals[0].Range.Start,
			End:   s.intervals[len(s.intervals)-1].Range.End,
		}
	}
	return st
}

// recordLocked appends a span at the tail, merging with the previous
// span when contiguous and same-labeled.
func (s *Store) recordLocked(span Span) {
	s.intervals = appendSpan(s.intervals, span)
}

func appendSpan(spans []Span, span Span) []Span {
	if n := len(spans); n > 0 {
		last := &spans[n-1]
		if last.Label == span.Label && last.Range.End == span.Range.Start {
			last.Range.End = span.Range.End
			last.Confidence = span.Confidence
			return spans
		}
	}
	return append(spans, span)
}

// cutLocked removes the given range from the interval list, splitting
// spans that straddle its edges.
func (s *Store) cutLocked(r audio.SampleRange) {
	var out []Span
	for _, span := range s.intervals {
		if !span.Range.Overlaps(r) {
			out = append(out, span)
			continue
		}
		if span.Range.Start < r.Start {
			head := span
			head.Range.End = r.Start
			out = append(out, head)
		}
		if span.Range.End > r.End {
			tail := span
			tail.Range.Start = r.End
			out = append(out, tail)
		}
	}
	s.intervals = out
}

// insertLocked places a span at its ordered position. The caller must
// have cut its range free first.
func (s *Store) insertLocked(span Span) {
	i := sort.Search(len(s.intervals), func(i int) bool {
		return s.intervals[i].Range.Start >= span.Range.Start
	})
	s.intervals = append(s.intervals, Span{})
	copy(s.intervals[i+1:], s.intervals[i:])
	s.intervals[i] = span
}

// evictLocked drops history beyond the retention window.
func (s *Store) evictLocked() {
	if len(s.intervals) == 0 {
		return
	}
	head := s.intervals[len(s.intervals)-1].Range.End
	floor := head - audio.MSToSamples(s.cfg.Retention.Milliseconds(), s.cfg.SampleRate)
	if floor <= 0 {
		return
	}

	keep := s.intervals[:0]
	for _, span := range s.intervals {
		if span.Range.End <= floor {
			continue
		}
		if span.Range.Start < floor {
			span.Range.Start = floor
		}
		keep = append(keep, span)
	}
	s.intervals = keep

	marks := s.patched[:0]
	for _, m := range s.patched {
		if m.rng.End <= floor {
			continue
		}
		marks = append(marks, m)
	}
	s.patched = marks
}
