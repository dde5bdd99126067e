package coach

import (
	"github.com/skillsenselab/speakerline/diarize"
	"github.com/skillsenselab/speakerline/sentence"
)

// GateConfig holds eligibility thresholds.
type GateConfig struct {
	// MinCoverage is the attribution coverage a sentence needs.
	MinCoverage float64
	// MinSentenceMS filters out fragments too short to act on.
	MinSentenceMS int64
}

// ApplyDefaults fills zero fields with the standard thresholds.
func (c *GateConfig) ApplyDefaults() {
	if c.MinCoverage == 0 {
		c.MinCoverage = 0.75
	}
	if c.MinSentenceMS == 0 {
		c.MinSentenceMS = 1000
	}
}

// Gate filters sentences down to the ones eligible for coaching.
type Gate struct {
	cfg  GateConfig
	seen map[string]struct{}
}

// NewGate creates a gate for one stream.
func NewGate(cfg GateConfig) *Gate {
	cfg.ApplyDefaults()
	return &Gate{cfg: cfg, seen: make(map[string]struct{})}
}

// Admit reports whether the sentence should reach coaching. Each
// sentence id is admitted at most once, so patched re-emissions of an
// already-admitted sentence never fire again.
func (g *Gate) Admit(ss sentence.SpeakerSentence) bool {
	// A patch must not grant a nudge the live emission did not.
	if ss.Flags.Patched {
		return false
	}
	if _, ok := g.seen[ss.ID]; ok {
		return false
	}
	if !eligible(g.cfg, ss) {
		return false
	}
	g.seen[ss.ID] = struct{}{}
	return true
}

func eligible(cfg GateConfig, ss sentence.SpeakerSentence) bool {
	switch ss.Label.Kind {
	case diarize.KindResolved, diarize.KindUnknown:
	default:
		return false
	}
	if ss.Flags.Overlap || ss.Flags.Uncertain {
		return false
	}
	if ss.Coverage < cfg.MinCoverage {
		return false
	}
	return ss.DurationMS() >= cfg.MinSentenceMS
}
