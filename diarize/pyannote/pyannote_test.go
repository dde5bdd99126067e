package pyannote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skillsenselab/speakerline/diarize"
)

func TestDiarizeDecodesSidecarResponse(t *testing.T) {
	var gotPath, gotRate, gotCT string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRate = r.URL.Query().Get("sample_rate")
		gotCT = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{
			"segments": [
				{"speaker_id": "SPEAKER_00", "start_time": 0.1, "end_time": 0.8, "confidence": 0.92},
				{"speaker_id": "SPEAKER_01", "start_time": 0.8, "end_time": 1.2}
			],
			"num_speakers": 2
		}`))
	}))
	t.Cleanup(srv.Close)

	p := NewProvider(Config{BaseURL: srv.URL})
	pcm := []byte{1, 2, 3, 4}
	resp, err := p.Diarize(context.Background(), diarize.Request{PCM: pcm, SampleRate: 16000})
	if err != nil {
		t.Fatalf("Diarize: %v", err)
	}

	if gotPath != "/diarize" || gotRate != "16000" || gotCT != "audio/l16" {
		t.Errorf("request = %s rate=%s ct=%s", gotPath, gotRate, gotCT)
	}
	if string(gotBody) != string(pcm) {
		t.Errorf("body = %v", gotBody)
	}
	if resp.NumSpeakers != 2 || len(resp.Estimates) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	first := resp.Estimates[0]
	if first.Speaker != "SPEAKER_00" || first.Start != 0.1 || first.End != 0.8 || first.Confidence != 0.92 {
		t.Errorf("estimate = %+v", first)
	}
	if resp.Estimates[1].Confidence != 0 {
		t.Errorf("missing confidence should stay zero, got %v", resp.Estimates[1].Confidence)
	}
}

func TestDiarizeRefineUsesRefineEndpoint(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"segments": [], "num_speakers": 0}`))
	}))
	t.Cleanup(srv.Close)

	p := NewProvider(Config{BaseURL: srv.URL})
	if _, err := p.Diarize(context.Background(), diarize.Request{SampleRate: 16000, Refine: true}); err != nil {
		t.Fatalf("Diarize: %v", err)
	}
	if gotPath != "/diarize/refine" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestDiarizeSidecarErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
		}},
		{"error field", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": "audio too short"}`))
		}},
		{"malformed json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			t.Cleanup(srv.Close)
			p := NewProvider(Config{BaseURL: srv.URL})
			if _, err := p.Diarize(context.Background(), diarize.Request{SampleRate: 16000}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	if !NewProvider(Config{BaseURL: srv.URL}).IsAvailable(context.Background()) {
		t.Error("healthy sidecar reported unavailable")
	}

	srv.Close()
	if NewProvider(Config{BaseURL: srv.URL}).IsAvailable(context.Background()) {
		t.Error("closed sidecar reported available")
	}
}

func TestNewProviderDefaults(t *testing.T) {
	p := NewProvider(Config{})
	if p.cfg.BaseURL != defaultBaseURL || p.cfg.Timeout != defaultTimeout {
		t.Errorf("defaults = %+v", p.cfg)
	}
	if p.Name() != ProviderName {
		t.Errorf("name = %q", p.Name())
	}
}
