package coach

import (
	"testing"

	"github.com/skillsenselab/speakerline/diarize"
	"github.com/skillsenselab/speakerline/sentence"
)

func eligibleSentence(id string) sentence.SpeakerSentence {
	return sentence.SpeakerSentence{
		Sentence: sentence.Sentence{
			ID:       id,
			StreamID: "stream-1",
			StartMS:  0,
			EndMS:    2000,
			Text:     "I feel unheard when you interrupt me.",
		},
		Label:     diarize.Resolved("alice"),
		LabelConf: 0.9,
		Coverage:  0.9,
	}
}

func TestGateAdmitsCleanSentence(t *testing.T) {
	g := NewGate(GateConfig{})

	if !g.Admit(eligibleSentence("a")) {
		t.Error("clean sentence rejected")
	}
}

func TestGateAdmitsEachSentenceOnce(t *testing.T) {
	g := NewGate(GateConfig{})

	ss := eligibleSentence("a")
	if !g.Admit(ss) {
		t.Fatal("first admit rejected")
	}
	if g.Admit(ss) {
		t.Error("same sentence admitted twice")
	}
	if !g.Admit(eligibleSentence("b")) {
		t.Error("distinct sentence rejected")
	}
}

func TestGateNeverAdmitsPatchedReemission(t *testing.T) {
	g := NewGate(GateConfig{})

	ss := eligibleSentence("a")
	ss.Flags.Patched = true
	if g.Admit(ss) {
		t.Error("patched sentence admitted")
	}
	// The live emission still qualifies afterwards.
	if !g.Admit(eligibleSentence("a")) {
		t.Error("live emission rejected after patched one")
	}
}

func TestGateEligibility(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*sentence.SpeakerSentence)
		want   bool
	}{
		{"resolved identity", func(ss *sentence.SpeakerSentence) {}, true},
		{"unknown guest", func(ss *sentence.SpeakerSentence) { ss.Label = diarize.Unknown(1) }, true},
		{"raw engine label", func(ss *sentence.SpeakerSentence) { ss.Label = diarize.Speaker(0) }, false},
		{"overlap label", func(ss *sentence.SpeakerSentence) {
			ss.Label = diarize.Overlap()
			ss.Flags.Overlap = true
		}, false},
		{"uncertain flag", func(ss *sentence.SpeakerSentence) { ss.Flags.Uncertain = true }, false},
		{"overlap flag only", func(ss *sentence.SpeakerSentence) { ss.Flags.Overlap = true }, false},
		{"low coverage", func(ss *sentence.SpeakerSentence) { ss.Coverage = 0.5 }, false},
		{"too short", func(ss *sentence.SpeakerSentence) { ss.EndMS = ss.StartMS + 500 }, false},
		{"exactly min duration", func(ss *sentence.SpeakerSentence) { ss.EndMS = ss.StartMS + 1000 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(GateConfig{})
			ss := eligibleSentence(tt.name)
			tt.mutate(&ss)
			if got := g.Admit(ss); got != tt.want {
				t.Errorf("Admit() = %v, want %v", got, tt.want)
			}
		})
	}
}
