package sentence

import (
	"strings"

	"github.com/skillsenselab/speakerline/logger"
)

// StitcherConfig controls merging of adjacent short fragments.
type StitcherConfig struct {
	// MaxGapMS is the largest silence between fragments that still merges.
	MaxGapMS int64
	// MaxCombinedMS caps the duration of a stitched sentence.
	MaxCombinedMS int64
}

// ApplyDefaults fills zero fields with the standard limits.
func (c *StitcherConfig) ApplyDefaults() {
	if c.MaxGapMS == 0 {
		c.MaxGapMS = 300
	}
	if c.MaxCombinedMS == 0 {
		c.MaxCombinedMS = 9000
	}
}

// Stitcher holds back at most one attributed sentence per stream and
// merges it with the next one when both belong to the same speaker and
// the join stays within the duration cap. Fragments ending in strong
// punctuation are never held.
type Stitcher struct {
	cfg     StitcherConfig
	log     *logger.Logger
	pending *SpeakerSentence
}

// NewStitcher creates a stitcher for one stream.
func NewStitcher(cfg StitcherConfig, log *logger.Logger) *Stitcher {
	cfg.ApplyDefaults()
	return &Stitcher{cfg: cfg, log: log}
}

// Push offers a sentence and returns the sentences released by it.
// A sentence may be withheld as a merge candidate, so the return can
// be empty; Flush releases whatever is still pending.
func (s *Stitcher) Push(ss SpeakerSentence) []SpeakerSentence {
	if s.pending == nil {
		if s.holdable(ss) {
			s.pending = &ss
			return nil
		}
		return []SpeakerSentence{ss}
	}

	if s.mergeable(*s.pending, ss) {
		merged := s.merge(*s.pending, ss)
		s.log.Debug("stitched fragments", logger.Fields(
			logger.FieldSentence, merged.ID,
			logger.FieldLabel, merged.Label.String(),
			logger.FieldDuration, merged.DurationMS(),
		))
		if s.holdable(merged) {
			s.pending = &merged
			return nil
		}
		s.pending = nil
		return []SpeakerSentence{merged}
	}

	out := []SpeakerSentence{*s.pending}
	s.pending = nil
	if s.holdable(ss) {
		s.pending = &ss
		return out
	}
	return append(out, ss)
}

// Flush releases the pending sentence, if any. Called on teardown and
// whenever the stream goes quiet long enough that no successor can merge.
func (s *Stitcher) Flush() []SpeakerSentence {
	if s.pending == nil {
		return nil
	}
	out := []SpeakerSentence{*s.pending}
	s.pending = nil
	return out
}

// PendingDeadlineMS reports the stream time after which the pending
// sentence can no longer merge with a successor, or -1 when idle.
func (s *Stitcher) PendingDeadlineMS() int64 {
	if s.pending == nil {
		return -1
	}
	return s.pending.EndMS + s.cfg.MaxGapMS
}

func (s *Stitcher) holdable(ss SpeakerSentence) bool {
	if endsStrong(ss.Text) {
		return false
	}
	return ss.Label.Resolvable()
}

func (s *Stitcher) mergeable(a, b SpeakerSentence) bool {
	if a.Label != b.Label {
		return false
	}
	if b.StartMS-a.EndMS >= s.cfg.MaxGapMS {
		return false
	}
	return b.EndMS-a.StartMS < s.cfg.MaxCombinedMS
}

func (s *Stitcher) merge(a, b SpeakerSentence) SpeakerSentence {
	out := a
	out.EndMS = b.EndMS
	out.Text = strings.TrimSpace(a.Text) + " " + strings.TrimSpace(b.Text)
	out.Flags.Overlap = a.Flags.Overlap || b.Flags.Overlap
	out.Flags.Uncertain = a.Flags.Uncertain || b.Flags.Uncertain
	out.Flags.Patched = a.Flags.Patched || b.Flags.Patched
	// Recompute coverage as the span-weighted mix of both fragments.
	da, db := float64(a.DurationMS()), float64(b.DurationMS())
	if da+db > 0 {
		out.Coverage = (a.Coverage*da + b.Coverage*db) / (da + db)
		out.LabelConf = (a.LabelConf*da + b.LabelConf*db) / (da + db)
	}
	return out
}

func endsStrong(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	switch t[len(t)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
