// Package pyannote implements diarize.Provider against a Pyannote-style
// streaming HTTP sidecar.
package pyannote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/skillsenselab/speakerline/diarize"
)

const (
	// ProviderName is the registered name for the Pyannote provider.
	ProviderName = "pyannote"

	defaultBaseURL = "http://localhost:8388"
	defaultTimeout = 5 * time.Second
)

// Config holds configuration for the Pyannote diarization sidecar.
type Config struct {
	BaseURL string        `json:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Provider implements diarize.Provider using the Pyannote HTTP sidecar.
type Provider struct {
	cfg    Config
	client *http.Client
}

// NewProvider creates a new Pyannote diarization provider.
func NewProvider(cfg Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
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

// IsAvailable checks if the sidecar is reachable.
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

// Diarize posts one raw PCM window to the sidecar and returns its
// speaker estimates.
func (p *Provider) Diarize(ctx context.Context, req diarize.Request) (*diarize.Response, error) {
	endpoint := p.cfg.BaseURL + "/diarize"
	if req.Refine {
		endpoint = p.cfg.BaseURL + "/diarize/refine"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(req.PCM))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "audio/l16")
	q := httpReq.URL.Query()
	q.Set("sample_rate", strconv.Itoa(req.SampleRate))
	httpReq.URL.RawQuery = q.Encode()

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("diarization request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("diarization error (status %d): %s", resp.StatusCode, string(body))
	}

	var result sidecarResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode diarization response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("diarization error: %s", result.Error)
	}

	out := &diarize.Response{NumSpeakers: result.NumSpeakers}
	for _, seg := range result.Segments {
		out.Estimates = append(out.Estimates, diarize.Estimate{
			Speaker:    seg.SpeakerID,
			Start:      seg.StartTime,
			End:        seg.EndTime,
			Confidence: seg.Confidence,
		})
	}
	return out, nil
}

// --- internal sidecar API types ---

type sidecarResponse struct {
	Segments    []sidecarSegment `json:"segments"`
	NumSpeakers int              `json:"num_speakers"`
	Error       string           `json:"error,omitempty"`
}

type sidecarSegment struct {
	SpeakerID  string  `json:"speaker_id"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Confidence float64 `json:"confidence,omitempty"`
}
