package sentence

import (
	"github.com/skillsenselab/speakerline/audio"
	"github.com/skillsenselab/speakerline/diarize"
	"github.com/skillsenselab/speakerline/timeline"
)

// AttributorConfig holds the coverage thresholds.
type AttributorConfig struct {
	SampleRate int
	// DominantTh is the coverage a speaker needs to win the sentence.
	DominantTh float64
	// OverlapTh is the overlap coverage that marks the whole sentence.
	OverlapTh float64
	// UncertainTh is the uncertain coverage that marks the sentence.
	UncertainTh float64
}

// ApplyDefaults fills zero fields with the standard thresholds.
func (c *AttributorConfig) ApplyDefaults() {
	if c.DominantTh == 0 {
		c.DominantTh = 0.75
	}
	if c.OverlapTh == 0 {
		c.OverlapTh = 0.20
	}
	if c.UncertainTh == 0 {
		c.UncertainTh = 0.30
	}
}

// Attributor assigns exactly one speaker label to each sentence from
// timeline coverage. Attribution is a pure read of the timeline: calling
// it twice against an unchanged timeline yields identical output.
type Attributor struct {
	cfg   AttributorConfig
	store *timeline.Store
}

// NewAttributor creates an attributor reading the given timeline.
func NewAttributor(store *timeline.Store, cfg AttributorConfig) *Attributor {
	cfg.ApplyDefaults()
	return &Attributor{cfg: cfg, store: store}
}

// labelCover accumulates coverage for one label.
type labelCover struct {
	samples int64
	confSum float64 // confidence weighted by samples
}

// Attribute resolves the sentence's label. A span with no diarization
// coverage at all is honestly UNCERTAIN.
func (a *Attributor) Attribute(sn Sentence) SpeakerSentence {
	r := audio.RangeFromMS(sn.StartMS, sn.EndMS, a.cfg.SampleRate)
	total := r.Len()
	ss := SpeakerSentence{Sentence: sn, Label: diarize.Uncertain()}
	if total <= 0 {
		ss.Flags.Uncertain = true
		return ss
	}

	var overlap, uncertain int64
	covers := make(map[diarize.Label]*labelCover)
	for _, span := range a.store.Query(r) {
		n := span.Range.Len()
		switch span.Label.Kind {
		case diarize.KindOverlap:
			overlap += n
		case diarize.KindUncertain:
			uncertain += n
		default:
			c := covers[span.Label]
			if c == nil {
				c = &labelCover{}
				covers[span.Label] = c
			}
			c.samples += n
			c.confSum += span.Confidence * float64(n)
		}
	}

	// 1. Enough overlapping speech marks the whole sentence.
	if float64(overlap)/float64(total) >= a.cfg.OverlapTh {
		ss.Label = diarize.Overlap()
		ss.Coverage = float64(overlap) / float64(total)
		ss.Flags.Overlap = true
		return ss
	}
	// 2. Enough unattributable speech does likewise.
	if float64(uncertain)/float64(total) >= a.cfg.UncertainTh {
		ss.Label = diarize.Uncertain()
		ss.Coverage = float64(uncertain) / float64(total)
		ss.Flags.Uncertain = true
		return ss
	}

	// 3. The dominant speaker wins only with enough coverage.
	var domLabel diarize.Label
	var dom *labelCover
	for label, c := range covers {
		if dom == nil || c.samples > dom.samples ||
			(c.samples == dom.samples && label.String() < domLabel.String()) {
			domLabel = label
			dom = c
		}
	}
	if dom == nil {
		ss.Flags.Uncertain = true
		return ss
	}
	coverage := float64(dom.samples) / float64(total)
	if coverage < a.cfg.DominantTh {
		ss.Flags.Uncertain = true
		ss.Coverage = coverage
		return ss
	}

	ss.Label = domLabel
	ss.LabelConf = dom.confSum / float64(dom.samples)
	ss.Coverage = coverage
	return ss
}
