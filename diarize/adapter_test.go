package diarize

import (
	"context"
	"errors"
	"testing"

	"github.com/skillsenselab/speakerline/audio"
)

const testRate = 16000

func newTestAdapter(p Provider) *Adapter {
	return NewAdapter(p, AdapterConfig{SampleRate: testRate})
}

func scriptedProvider(estimates ...Estimate) *MockProvider {
	return &MockProvider{
		Available: true,
		DiarizeFunc: func(ctx context.Context, req Request) (*Response, error) {
			return &Response{Estimates: estimates}, nil
		},
	}
}

func testWindow(start, end int64) audio.Window {
	return audio.Window{
		Range: audio.SampleRange{Start: start, End: end},
		PCM:   make([]byte, (end-start)*audio.BytesPerSample),
	}
}

func TestAdapterRebasesEstimates(t *testing.T) {
	a := newTestAdapter(scriptedProvider(
		Estimate{Speaker: "spk0", Start: 0, End: 0.5, Confidence: 0.9},
	))

	frames := a.ProcessWindow(context.Background(), testWindow(16000, 35200))
	if len(frames) != 1 {
		t.Fatalf("got %d frames", len(frames))
	}
	f := frames[0]
	if f.Range.Start != 16000 || f.Range.End != 24000 {
		t.Errorf("range [%d,%d), want [16000,24000)", f.Range.Start, f.Range.End)
	}
	if f.Label != Speaker(0) {
		t.Errorf("label = %s", f.Label)
	}
	if f.Confidence != 0.9 {
		t.Errorf("confidence = %v", f.Confidence)
	}
	if f.Patch {
		t.Error("window frames must not be patch frames")
	}
}

func TestAdapterResolvesOverlaps(t *testing.T) {
	a := newTestAdapter(scriptedProvider(
		Estimate{Speaker: "SPEAKER_00", Start: 0, End: 0.8, Confidence: 0.9},
		Estimate{Speaker: "SPEAKER_01", Start: 0.6, End: 1.2, Confidence: 0.7},
	))

	frames := a.ProcessWindow(context.Background(), testWindow(0, 19200))
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3", len(frames))
	}
	if frames[0].Label != Speaker(0) || frames[0].Range.End != 9600 {
		t.Errorf("frame 0: %s [%d,%d)", frames[0].Label, frames[0].Range.Start, frames[0].Range.End)
	}
	if frames[1].Label != Overlap() {
		t.Errorf("frame 1: %s, want OVERLAP", frames[1].Label)
	}
	if frames[1].Range.Start != 9600 || frames[1].Range.End != 12800 {
		t.Errorf("overlap range [%d,%d)", frames[1].Range.Start, frames[1].Range.End)
	}
	if frames[1].Confidence != 0.7 {
		t.Errorf("overlap confidence = %v, want the weaker side", frames[1].Confidence)
	}
	if frames[2].Label != Speaker(1) || frames[2].Range.Start != 12800 || frames[2].Range.End != 19200 {
		t.Errorf("frame 2: %s [%d,%d)", frames[2].Label, frames[2].Range.Start, frames[2].Range.End)
	}
}

func TestAdapterClampsToWindow(t *testing.T) {
	a := newTestAdapter(scriptedProvider(
		Estimate{Speaker: "spk0", Start: -0.5, End: 2.0, Confidence: 0.9},
	))

	frames := a.ProcessWindow(context.Background(), testWindow(16000, 35200))
	if len(frames) != 1 {
		t.Fatalf("got %d frames", len(frames))
	}
	if frames[0].Range.Start != 16000 || frames[0].Range.End != 35200 {
		t.Errorf("range [%d,%d) not clamped to the window", frames[0].Range.Start, frames[0].Range.End)
	}
}

func TestAdapterDefaultsMissingConfidence(t *testing.T) {
	a := newTestAdapter(scriptedProvider(
		Estimate{Speaker: "spk0", Start: 0, End: 1.0},
	))

	frames := a.ProcessWindow(context.Background(), testWindow(0, 19200))
	if len(frames) != 1 || frames[0].Confidence != 0.5 {
		t.Fatalf("frames = %+v, want one frame at even odds", frames)
	}
}

func TestAdapterEngineFailureYieldsNoFrames(t *testing.T) {
	a := newTestAdapter(&MockProvider{
		Available: true,
		DiarizeFunc: func(ctx context.Context, req Request) (*Response, error) {
			return nil, errors.New("sidecar down")
		},
	})

	if frames := a.ProcessWindow(context.Background(), testWindow(0, 19200)); frames != nil {
		t.Errorf("got frames from a failing engine: %v", frames)
	}
}

func TestAdapterRefineVersionsIncrease(t *testing.T) {
	a := newTestAdapter(scriptedProvider(
		Estimate{Speaker: "spk1", Start: 0, End: 1.0, Confidence: 0.9},
	))
	r := audio.SampleRange{Start: 0, End: 16000}
	pcm := make([]byte, 32000)

	first := a.Refine(context.Background(), r, pcm)
	second := a.Refine(context.Background(), r, pcm)
	if first == nil || second == nil {
		t.Fatal("refine returned nil")
	}
	if first.Version != 1 || second.Version != 2 {
		t.Errorf("versions %d, %d, want 1, 2", first.Version, second.Version)
	}
	if !first.Frames[0].Patch {
		t.Error("refine frames must carry the patch mark")
	}
	if first.Range != r {
		t.Errorf("patch range %+v", first.Range)
	}
}

func TestAdapterRefineEmptyResponseIsNil(t *testing.T) {
	a := newTestAdapter(scriptedProvider())

	r := audio.SampleRange{Start: 0, End: 16000}
	if p := a.Refine(context.Background(), r, make([]byte, 32000)); p != nil {
		t.Errorf("got a patch from an empty response: %+v", p)
	}
}
