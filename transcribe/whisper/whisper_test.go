package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skillsenselab/speakerline/transcribe"
)

func TestTranscribeDecodesSidecarResponse(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"sample_rate": r.URL.Query().Get("sample_rate"),
			"model":       r.URL.Query().Get("model"),
			"language":    r.URL.Query().Get("language"),
		}
		w.Write([]byte(`{
			"segments": [
				{"start": 0.2, "end": 1.4, "text": "hello there", "confidence": 0.88, "final": true}
			],
			"language": "en"
		}`))
	}))
	t.Cleanup(srv.Close)

	p := NewProvider(Config{BaseURL: srv.URL, Model: "small"})
	resp, err := p.Transcribe(context.Background(), transcribe.Request{
		PCM:        []byte{0, 0, 0, 0},
		SampleRate: 16000,
		Language:   "en",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if gotQuery["sample_rate"] != "16000" || gotQuery["model"] != "small" || gotQuery["language"] != "en" {
		t.Errorf("query = %v", gotQuery)
	}
	if len(resp.Segments) != 1 || resp.Language != "en" {
		t.Fatalf("resp = %+v", resp)
	}
	seg := resp.Segments[0]
	if seg.Text != "hello there" || !seg.Final || seg.Confidence != 0.88 {
		t.Errorf("segment = %+v", seg)
	}
}

func TestTranscribeLanguagePrecedence(t *testing.T) {
	var gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.URL.Query().Get("language")
		w.Write([]byte(`{"segments": []}`))
	}))
	t.Cleanup(srv.Close)

	// Request language overrides the configured default.
	p := NewProvider(Config{BaseURL: srv.URL, Language: "en"})
	if _, err := p.Transcribe(context.Background(), transcribe.Request{SampleRate: 16000, Language: "tr"}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotLang != "tr" {
		t.Errorf("language = %q, want tr", gotLang)
	}

	if _, err := p.Transcribe(context.Background(), transcribe.Request{SampleRate: 16000}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotLang != "en" {
		t.Errorf("language = %q, want configured en", gotLang)
	}
}

func TestTranscribeSidecarError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of memory", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	p := NewProvider(Config{BaseURL: srv.URL})
	if _, err := p.Transcribe(context.Background(), transcribe.Request{SampleRate: 16000}); err == nil {
		t.Error("expected an error")
	}
}

func TestNewProviderDefaults(t *testing.T) {
	p := NewProvider(Config{})
	if p.cfg.BaseURL != defaultBaseURL || p.cfg.Model != defaultModel || p.cfg.Timeout != defaultTimeout {
		t.Errorf("defaults = %+v", p.cfg)
	}
	if p.Name() != ProviderName {
		t.Errorf("name = %q", p.Name())
	}
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	if !NewProvider(Config{BaseURL: srv.URL}).IsAvailable(context.Background()) {
		t.Error("healthy sidecar reported unavailable")
	}
}
