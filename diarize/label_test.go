package diarize

import (
	"encoding/json"
	"testing"
)

func TestLabelString(t *testing.T) {
	tests := []struct {
		name  string
		label Label
		want  string
	}{
		{"speaker", Speaker(2), "spk2"},
		{"overlap", Overlap(), "OVERLAP"},
		{"uncertain", Uncertain(), "UNCERTAIN"},
		{"resolved", Resolved("alice"), "alice"},
		{"unknown", Unknown(3), "Unknown_3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.label.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Label
	}{
		{"pipeline speaker", "spk1", Speaker(1)},
		{"engine speaker", "SPEAKER_00", Speaker(0)},
		{"engine speaker double digit", "SPEAKER_12", Speaker(12)},
		{"overlap", "OVERLAP", Overlap()},
		{"uncertain", "UNCERTAIN", Uncertain()},
		{"empty", "", Uncertain()},
		{"garbage", "speaker one", Uncertain()},
		{"malformed index", "spkX", Uncertain()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLabel(tt.in); got != tt.want {
				t.Errorf("ParseLabel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLabelRoundTrip(t *testing.T) {
	for _, label := range []Label{Speaker(0), Speaker(7), Overlap(), Uncertain()} {
		if got := ParseLabel(label.String()); got != label {
			t.Errorf("round trip %v -> %q -> %v", label, label.String(), got)
		}
	}
}

func TestLabelPredicates(t *testing.T) {
	if !Overlap().Special() || !Uncertain().Special() {
		t.Error("overlap and uncertain are special")
	}
	if Speaker(0).Special() || Resolved("alice").Special() || Unknown(1).Special() {
		t.Error("only overlap and uncertain are special")
	}
	if !Speaker(3).Resolvable() {
		t.Error("engine speakers are resolvable")
	}
	for _, l := range []Label{Overlap(), Uncertain(), Resolved("alice"), Unknown(1)} {
		if l.Resolvable() {
			t.Errorf("%s should not be resolvable", l)
		}
	}
}

func TestLabelMarshalJSON(t *testing.T) {
	data, err := json.Marshal(Speaker(1))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"spk1"` {
		t.Errorf("marshaled %s", data)
	}
}

func TestLabelsAreMapKeys(t *testing.T) {
	m := map[Label]int{
		Speaker(0):        1,
		Speaker(1):        2,
		Resolved("alice"): 3,
	}
	if m[Speaker(0)] == m[Speaker(1)] {
		t.Error("distinct speakers collide")
	}
	if m[Resolved("alice")] != 3 {
		t.Error("resolved label lookup failed")
	}
}
