package sentence

import (
	"testing"

	"github.com/skillsenselab/speakerline/audio"
	"github.com/skillsenselab/speakerline/diarize"
	"github.com/skillsenselab/speakerline/timeline"
)

const (
	testRate     = 16000
	frameSamples = 320 // 20ms
)

// frames builds n consecutive 20ms frames starting at sample start.
func frames(start int64, n int, label diarize.Label, conf float64) []diarize.Frame {
	out := make([]diarize.Frame, n)
	for i := range out {
		s := start + int64(i)*frameSamples
		out[i] = diarize.Frame{
			Range:      audio.SampleRange{Start: s, End: s + frameSamples},
			Label:      label,
			Confidence: conf,
		}
	}
	return out
}

func newTestAttributor(store *timeline.Store) *Attributor {
	return NewAttributor(store, AttributorConfig{SampleRate: testRate})
}

func testSentence(startMS, endMS int64) Sentence {
	return Sentence{ID: "sn-1", StreamID: "stream-1", StartMS: startMS, EndMS: endMS, Text: "placeholder"}
}

func TestAttributorDominantSpeakerWins(t *testing.T) {
	store := timeline.NewStore(timeline.StoreConfig{SampleRate: testRate})
	store.ApplyFrames(frames(0, 200, diarize.Speaker(0), 0.9))

	ss := newTestAttributor(store).Attribute(testSentence(0, 4000))
	if ss.Label != diarize.Speaker(0) {
		t.Fatalf("label = %s, want spk0", ss.Label)
	}
	if ss.Coverage < 0.99 {
		t.Errorf("coverage = %v, want ~1.0", ss.Coverage)
	}
	if ss.LabelConf < 0.8 {
		t.Errorf("label confidence = %v", ss.LabelConf)
	}
	if ss.Flags.Uncertain || ss.Flags.Overlap {
		t.Errorf("unexpected flags %+v", ss.Flags)
	}
}

func TestAttributorPartialCoverageStillDominant(t *testing.T) {
	store := timeline.NewStore(timeline.StoreConfig{SampleRate: testRate})
	// 170 of 200 frames covered: 85% is above the dominant threshold.
	store.ApplyFrames(frames(0, 170, diarize.Speaker(0), 0.8))

	ss := newTestAttributor(store).Attribute(testSentence(0, 4000))
	if ss.Label != diarize.Speaker(0) {
		t.Fatalf("label = %s, want spk0", ss.Label)
	}
	if ss.Coverage < 0.84 || ss.Coverage > 0.86 {
		t.Errorf("coverage = %v, want 0.85", ss.Coverage)
	}
}

func TestAttributorCoverageBoundary(t *testing.T) {
	// 200 frames span the sentence; 148 covered is 74%, 152 is 76%,
	// straddling the 0.75 dominant threshold.
	tests := []struct {
		name    string
		covered int
		want    diarize.Label
	}{
		{"just below threshold", 148, diarize.Uncertain()},
		{"just above threshold", 152, diarize.Speaker(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := timeline.NewStore(timeline.StoreConfig{SampleRate: testRate})
			store.ApplyFrames(frames(0, tt.covered, diarize.Speaker(1), 0.9))

			ss := newTestAttributor(store).Attribute(testSentence(0, 4000))
			if ss.Label != tt.want {
				t.Errorf("label = %s, want %s (coverage %v)", ss.Label, tt.want, ss.Coverage)
			}
			if tt.want.Kind == diarize.KindUncertain && !ss.Flags.Uncertain {
				t.Error("uncertain flag should be set below threshold")
			}
		})
	}
}

func TestAttributorBelowDominantIsUncertain(t *testing.T) {
	store := timeline.NewStore(timeline.StoreConfig{SampleRate: testRate})
	// Two speakers at roughly half coverage each: neither reaches 75%.
	store.ApplyFrames(frames(0, 100, diarize.Speaker(0), 0.6))
	store.ApplyFrames(frames(100*frameSamples, 100, diarize.Speaker(1), 0.9))

	ss := newTestAttributor(store).Attribute(testSentence(0, 4000))
	if ss.Label != diarize.Uncertain() {
		t.Fatalf("label = %s, want UNCERTAIN", ss.Label)
	}
	if !ss.Flags.Uncertain {
		t.Error("expected uncertain flag")
	}
}

func TestAttributorOverlapMarksSentence(t *testing.T) {
	store := timeline.NewStore(timeline.StoreConfig{SampleRate: testRate})
	store.ApplyFrames(frames(0, 100, diarize.Speaker(0), 0.6))
	store.ApplyFrames(frames(100*frameSamples, 100, diarize.Overlap(), 0.95))

	ss := newTestAttributor(store).Attribute(testSentence(0, 4000))
	if ss.Label != diarize.Overlap() {
		t.Fatalf("label = %s, want OVERLAP", ss.Label)
	}
	if !ss.Flags.Overlap {
		t.Error("expected overlap flag")
	}
	if ss.Coverage < 0.20 {
		t.Errorf("overlap coverage = %v, want at least the threshold", ss.Coverage)
	}
}

func TestAttributorUncertainCoverageMarksSentence(t *testing.T) {
	store := timeline.NewStore(timeline.StoreConfig{SampleRate: testRate})
	store.ApplyFrames(frames(0, 100, diarize.Speaker(0), 0.6))
	store.ApplyFrames(frames(100*frameSamples, 100, diarize.Uncertain(), 0.95))

	ss := newTestAttributor(store).Attribute(testSentence(0, 4000))
	if ss.Label != diarize.Uncertain() {
		t.Fatalf("label = %s, want UNCERTAIN", ss.Label)
	}
	if !ss.Flags.Uncertain {
		t.Error("expected uncertain flag")
	}
}

func TestAttributorNoCoverageIsUncertain(t *testing.T) {
	store := timeline.NewStore(timeline.StoreConfig{SampleRate: testRate})

	ss := newTestAttributor(store).Attribute(testSentence(1000, 3000))
	if ss.Label != diarize.Uncertain() {
		t.Fatalf("label = %s, want UNCERTAIN", ss.Label)
	}
	if !ss.Flags.Uncertain {
		t.Error("expected uncertain flag")
	}
	if ss.Coverage != 0 {
		t.Errorf("coverage = %v, want 0", ss.Coverage)
	}
}

func TestAttributorEmptySpanIsUncertain(t *testing.T) {
	store := timeline.NewStore(timeline.StoreConfig{SampleRate: testRate})
	store.ApplyFrames(frames(0, 100, diarize.Speaker(0), 0.9))

	ss := newTestAttributor(store).Attribute(testSentence(2000, 2000))
	if !ss.Flags.Uncertain {
		t.Error("expected uncertain flag for empty span")
	}
}

func TestAttributorIsDeterministic(t *testing.T) {
	store := timeline.NewStore(timeline.StoreConfig{SampleRate: testRate})
	store.ApplyFrames(frames(0, 200, diarize.Speaker(1), 0.85))
	attr := newTestAttributor(store)

	first := attr.Attribute(testSentence(0, 4000))
	second := attr.Attribute(testSentence(0, 4000))
	if first.Label != second.Label || first.Coverage != second.Coverage || first.LabelConf != second.LabelConf {
		t.Errorf("attribution not stable: %+v vs %+v", first, second)
	}
}
