package sentence

import (
	"math"

	"github.com/skillsenselab/speakerline/audio"
	"github.com/skillsenselab/speakerline/diarize"
	"github.com/skillsenselab/speakerline/logger"
)

// ReattributorConfig controls how far back a patch may rewrite history.
type ReattributorConfig struct {
	SampleRate int
	// WindowMS is the rolling window, relative to the latest emitted
	// sentence end, inside which sentences remain revisable.
	WindowMS int64
}

// ApplyDefaults fills zero fields with the standard window.
func (c *ReattributorConfig) ApplyDefaults() {
	if c.WindowMS == 0 {
		c.WindowMS = 15000
	}
}

// Reattributor remembers recently emitted sentences and, when a
// diarization patch lands, re-runs attribution for the ones the patch
// touches. Only sentences whose label, confidence, coverage, or flags
// actually changed are surfaced again.
type Reattributor struct {
	cfg      ReattributorConfig
	attr     *Attributor
	log      *logger.Logger
	resolver func(diarize.Label, Sentence) diarize.Label
	history  []SpeakerSentence
	highMS   int64
}

// NewReattributor creates a reattributor using the given attributor.
func NewReattributor(attr *Attributor, cfg ReattributorConfig, log *logger.Logger) *Reattributor {
	cfg.ApplyDefaults()
	return &Reattributor{cfg: cfg, attr: attr, log: log}
}

// SetResolver installs the voice identity mapping applied to freshly
// re-attributed labels, so patched sentences carry the same durable
// identities as live ones. The resolver receives the sentence being
// revised; identity matching needs its audio span.
func (r *Reattributor) SetResolver(fn func(diarize.Label, Sentence) diarize.Label) {
	r.resolver = fn
}

// Track records an emitted sentence so later patches can revise it.
func (r *Reattributor) Track(ss SpeakerSentence) {
	if ss.EndMS > r.highMS {
		r.highMS = ss.EndMS
	}
	r.history = append(r.history, ss)
	r.prune()
}

// OnPatch re-attributes every tracked sentence overlapping the patched
// range and returns amended copies for those whose attribution changed.
func (r *Reattributor) OnPatch(patched audio.SampleRange) []SpeakerSentence {
	r.prune()
	var amended []SpeakerSentence
	for i, old := range r.history {
		span := audio.RangeFromMS(old.StartMS, old.EndMS, r.cfg.SampleRate)
		if !span.Overlaps(patched) {
			continue
		}
		next := r.attr.Attribute(old.Sentence)
		if r.resolver != nil {
			next.Label = r.resolver(next.Label, old.Sentence)
		}
		next.Flags.Patched = true
		next.Flags.VoiceID = next.Label.Kind == diarize.KindResolved
		if !changed(old, next) {
			continue
		}
		r.log.Info("sentence re-attributed", logger.Fields(
			logger.FieldSentence, next.ID,
			logger.FieldLabel, next.Label.String(),
			"previous_label", old.Label.String(),
		))
		r.history[i] = next
		amended = append(amended, next)
	}
	return amended
}

// prune drops sentences that fell out of the revisable window.
func (r *Reattributor) prune() {
	floor := r.highMS - r.cfg.WindowMS
	kept := r.history[:0]
	for _, ss := range r.history {
		if ss.EndMS >= floor {
			kept = append(kept, ss)
		}
	}
	r.history = kept
}

// attrEpsilon separates a real confidence or coverage shift from
// floating point noise.
const attrEpsilon = 1e-3

func changed(old, next SpeakerSentence) bool {
	if old.Label != next.Label {
		return true
	}
	if math.Abs(old.LabelConf-next.LabelConf) > attrEpsilon {
		return true
	}
	if math.Abs(old.Coverage-next.Coverage) > attrEpsilon {
		return true
	}
	return old.Flags.Overlap != next.Flags.Overlap ||
		old.Flags.Uncertain != next.Flags.Uncertain
}
