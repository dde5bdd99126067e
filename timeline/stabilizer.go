package timeline

import (
	"time"

	"github.com/skillsenselab/speakerline/diarize"
)

// StabilizerConfig holds the anti-twitch thresholds.
type StabilizerConfig struct {
	SampleRate int
	// MinTurn is the minimum time the incumbent label must have held
	// before it can be displaced.
	MinTurn time.Duration
	// SwitchConfirm is the minimum time a challenger must persist.
	SwitchConfirm time.Duration
	// Cooldown is the minimum time between committed switches.
	Cooldown time.Duration
	// SwitchMargin is the confidence lead the challenger needs.
	SwitchMargin float64
	// ConfidenceAlpha is the EWMA weight of a new frame's confidence.
	ConfidenceAlpha float64
}

// ApplyDefaults fills zero fields with the standard thresholds.
func (c *StabilizerConfig) ApplyDefaults() {
	if c.MinTurn == 0 {
		c.MinTurn = 800 * time.Millisecond
	}
	if c.SwitchConfirm == 0 {
		c.SwitchConfirm = 160 * time.Millisecond
	}
	if c.Cooldown == 0 {
		c.Cooldown = 600 * time.Millisecond
	}
	if c.SwitchMargin == 0 {
		c.SwitchMargin = 0.08
	}
	if c.ConfidenceAlpha == 0 {
		c.ConfidenceAlpha = 0.3
	}
}

func (c *StabilizerConfig) samples(d time.Duration) int64 {
	return d.Milliseconds() * int64(c.SampleRate) / 1000
}

// stabilizer is the per-stream anti-twitch state machine. It sees raw
// frames in order and reports, for each, the committed label to record.
// OVERLAP and UNCERTAIN go through the same rule as any speaker: honest
// labels, neither privileged nor suppressed.
type stabilizer struct {
	cfg StabilizerConfig

	hasCurrent  bool
	current     diarize.Label
	currentConf float64
	currentDur  int64 // samples

	hasCandidate  bool
	candidate     diarize.Label
	candidateConf float64
	candidateDur  int64 // samples

	sinceSwitch int64 // samples since last committed switch
	switches    int
}

func newStabilizer(cfg StabilizerConfig) *stabilizer {
	cfg.ApplyDefaults()
	return &stabilizer{cfg: cfg}
}

// apply consumes one raw frame and returns the committed label and
// confidence covering that frame's range.
func (s *stabilizer) apply(f diarize.Frame) (diarize.Label, float64) {
	n := f.Range.Len()
	s.sinceSwitch += n

	if !s.hasCurrent {
		s.hasCurrent = true
		s.current = f.Label
		s.currentConf = f.Confidence
		s.currentDur = n
		return s.current, s.currentConf
	}

	if f.Label == s.current {
		s.currentDur += n
		s.currentConf = s.ewma(s.currentConf, f.Confidence)
		s.clearCandidate()
		return s.current, s.currentConf
	}

	if s.hasCandidate && f.Label == s.candidate {
		s.candidateDur += n
		s.candidateConf = s.ewma(s.candidateConf, f.Confidence)
	} else {
		s.hasCandidate = true
		s.candidate = f.Label
		s.candidateConf = f.Confidence
		s.candidateDur = n
	}

	if s.shouldCommit() {
		s.current = s.candidate
		s.currentConf = s.candidateConf
		s.currentDur = s.candidateDur
		s.sinceSwitch = 0
		s.switches++
		s.clearCandidate()
	}
	return s.current, s.currentConf
}

// shouldCommit checks the four switch conditions. All must hold.
func (s *stabilizer) shouldCommit() bool {
	return s.candidateDur >= s.cfg.samples(s.cfg.SwitchConfirm) &&
		s.sinceSwitch >= s.cfg.samples(s.cfg.Cooldown) &&
		s.currentDur >= s.cfg.samples(s.cfg.MinTurn) &&
		s.candidateConf >= s.currentConf+s.cfg.SwitchMargin
}

func (s *stabilizer) clearCandidate() {
	s.hasCandidate = false
	s.candidate = diarize.Label{}
	s.candidateConf = 0
	s.candidateDur = 0
}

func (s *stabilizer) ewma(old, next float64) float64 {
	return s.cfg.ConfidenceAlpha*next + (1-s.cfg.ConfidenceAlpha)*old
}
