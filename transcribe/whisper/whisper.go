// Package whisper implements transcribe.Provider against a
// faster-whisper streaming HTTP sidecar.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/skillsenselab/speakerline/transcribe"
)

const (
	// ProviderName is the registered name for the Whisper provider.
	ProviderName = "whisper"

	defaultBaseURL = "http://localhost:8387"
	defaultModel   = "base"
	defaultTimeout = 10 * time.Second
)

// Config holds configuration for the Whisper transcription sidecar.
type Config struct {
	BaseURL  string        `json:"base_url" mapstructure:"base_url"`
	Model    string        `json:"model" mapstructure:"model"`
	Language string        `json:"language,omitempty" mapstructure:"language"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Provider implements transcribe.Provider using a faster-whisper HTTP
// sidecar.
type Provider struct {
	cfg    Config
	client *http.Client
}

// NewProvider creates a new Whisper transcription provider.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the provider name.
func (p *Provider) Name() string { return ProviderName }

// IsAvailable checks if the Whisper sidecar is reachable.
func (p *Provider) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Transcribe posts raw PCM to the sidecar and returns its segments.
func (p *Provider) Transcribe(ctx context.Context, req transcribe.Request) (*transcribe.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/transcribe", bytes.NewReader(req.PCM))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "audio/l16")
	q := httpReq.URL.Query()
	q.Set("sample_rate", strconv.Itoa(req.SampleRate))
	q.Set("model", p.cfg.Model)
	lang := p.cfg.Language
	if req.Language != "" {
		lang = req.Language
	}
	if lang != "" {
		q.Set("language", lang)
	}
	httpReq.URL.RawQuery = q.Encode()

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcription error (status %d): %s", resp.StatusCode, string(body))
	}

	var result transcribe.Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}
	return &result, nil
}
