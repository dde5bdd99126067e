package observability

import "testing"

func TestServiceHealthStartsUp(t *testing.T) {
	sh := NewServiceHealth("speakerlined", "1.2.3")
	if sh.Status != HealthStatusUp {
		t.Errorf("status = %q, want up", sh.Status)
	}
	if sh.Service != "speakerlined" || sh.Version != "1.2.3" {
		t.Errorf("identity = %q %q", sh.Service, sh.Version)
	}
	if len(sh.Components) != 0 {
		t.Errorf("components = %d, want none", len(sh.Components))
	}
}

func TestServiceHealthAggregation(t *testing.T) {
	tests := []struct {
		name       string
		components []Health
		want       HealthStatus
	}{
		{
			name:       "all up",
			components: []Health{{Name: "redis", Status: HealthStatusUp}, {Name: "whisper", Status: HealthStatusUp}},
			want:       HealthStatusUp,
		},
		{
			name:       "one degraded",
			components: []Health{{Name: "redis", Status: HealthStatusUp}, {Name: "pyannote", Status: HealthStatusDegraded}},
			want:       HealthStatusDegraded,
		},
		{
			name:       "one down",
			components: []Health{{Name: "redis", Status: HealthStatusDown}, {Name: "whisper", Status: HealthStatusUp}},
			want:       HealthStatusDown,
		},
		{
			name:       "degraded does not mask down",
			components: []Health{{Name: "redis", Status: HealthStatusDown}, {Name: "pyannote", Status: HealthStatusDegraded}},
			want:       HealthStatusDown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh := NewServiceHealth("speakerlined", "")
			for _, ch := range tt.components {
				sh.AddComponent(ch)
			}
			if sh.Status != tt.want {
				t.Errorf("status = %q, want %q", sh.Status, tt.want)
			}
			if len(sh.Components) != len(tt.components) {
				t.Errorf("components = %d, want %d", len(sh.Components), len(tt.components))
			}
		})
	}
}
