package audio

import "testing"

func TestSampleRangeLen(t *testing.T) {
	tests := []struct {
		name string
		r    SampleRange
		want int64
	}{
		{"normal", SampleRange{Start: 10, End: 30}, 20},
		{"empty", SampleRange{Start: 10, End: 10}, 0},
		{"inverted", SampleRange{Start: 30, End: 10}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.Len(); got != tc.want {
				t.Errorf("Len() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestSampleRangeContains(t *testing.T) {
	r := SampleRange{Start: 100, End: 200}
	if !r.Contains(100) {
		t.Error("expected start to be inside the half-open range")
	}
	if r.Contains(200) {
		t.Error("expected end to be outside the half-open range")
	}
	if r.Contains(99) {
		t.Error("expected sample before start to be outside")
	}
}

func TestSampleRangeIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b SampleRange
		want SampleRange
	}{
		{"partial", SampleRange{0, 100}, SampleRange{50, 150}, SampleRange{50, 100}},
		{"contained", SampleRange{0, 100}, SampleRange{20, 30}, SampleRange{20, 30}},
		{"disjoint", SampleRange{0, 100}, SampleRange{200, 300}, SampleRange{200, 200}},
		{"touching", SampleRange{0, 100}, SampleRange{100, 200}, SampleRange{100, 100}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.a.Intersect(tc.b)
			if got != tc.want {
				t.Errorf("Intersect() = %+v, want %+v", got, tc.want)
			}
			if tc.name == "disjoint" || tc.name == "touching" {
				if !got.Empty() {
					t.Error("expected empty intersection")
				}
				if tc.a.Overlaps(tc.b) {
					t.Error("expected no overlap")
				}
			}
		})
	}
}

func TestSampleRangeClamp(t *testing.T) {
	bounds := SampleRange{Start: 100, End: 1000}

	r, cut := SampleRange{Start: 50, End: 500}.Clamp(bounds)
	if !cut {
		t.Error("expected clamp to report a cut")
	}
	if r != (SampleRange{Start: 100, End: 500}) {
		t.Errorf("unexpected clamped range %+v", r)
	}

	r, cut = SampleRange{Start: 200, End: 300}.Clamp(bounds)
	if cut {
		t.Error("expected in-bounds range to be untouched")
	}
	if r != (SampleRange{Start: 200, End: 300}) {
		t.Errorf("unexpected range %+v", r)
	}
}

func TestSampleMSConversions(t *testing.T) {
	if got := MSToSamples(1000, 16000); got != 16000 {
		t.Errorf("MSToSamples(1000) = %d, want 16000", got)
	}
	if got := SamplesToMS(8000, 16000); got != 500 {
		t.Errorf("SamplesToMS(8000) = %d, want 500", got)
	}
	r := RangeFromMS(100, 350, 16000)
	if r != (SampleRange{Start: 1600, End: 5600}) {
		t.Errorf("RangeFromMS = %+v", r)
	}
	if got := r.DurationMS(16000); got != 250 {
		t.Errorf("DurationMS = %d, want 250", got)
	}
}

func TestDecodeS16(t *testing.T) {
	pcm := []byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x80, 0x7F}
	samples := DecodeS16(pcm)
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples (trailing byte ignored), got %d", len(samples))
	}
	want := []int16{1, -1, -32768}
	for i, s := range samples {
		if s != want[i] {
			t.Errorf("sample %d = %d, want %d", i, s, want[i])
		}
	}
}
