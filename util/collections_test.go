package util

import "testing"

func TestContains(t *testing.T) {
	tests := []struct {
		name  string
		slice []int
		val   int
		want  bool
	}{
		{"found", []int{8000, 16000, 48000}, 16000, true},
		{"not found", []int{8000, 16000}, 44100, false},
		{"empty slice", []int{}, 16000, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Contains(tc.slice, tc.val); got != tc.want {
				t.Errorf("Contains(%v, %d) = %v, want %v", tc.slice, tc.val, got, tc.want)
			}
		})
	}
}

func TestContainsStrings(t *testing.T) {
	levels := []string{"debug", "info", "warn"}
	if !Contains(levels, "info") {
		t.Error("expected Contains to find 'info'")
	}
	if Contains(levels, "verbose") {
		t.Error("expected Contains to not find 'verbose'")
	}
}

func TestKeys(t *testing.T) {
	m := map[string]int{"whisper": 1, "pyannote": 2}
	keys := Keys(m)
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if !Contains(keys, "whisper") || !Contains(keys, "pyannote") {
		t.Errorf("unexpected keys %v", keys)
	}
}

func TestKeysEmpty(t *testing.T) {
	if keys := Keys(map[string]int{}); len(keys) != 0 {
		t.Errorf("expected no keys, got %v", keys)
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"spk0", "spk1", "spk0", "spk2", "spk1"})
	want := []string{"spk0", "spk1", "spk2"}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i, v := range got {
		if v != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], v)
		}
	}
}

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "", "16000"); got != "16000" {
		t.Errorf("expected first non-empty value, got %q", got)
	}
	if got := Coalesce(0, 0); got != 0 {
		t.Errorf("expected zero value, got %d", got)
	}
	if got := Coalesce(8000, 16000); got != 8000 {
		t.Errorf("expected first value to win, got %d", got)
	}
}
