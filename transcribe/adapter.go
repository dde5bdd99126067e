package transcribe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/skillsenselab/speakerline/audio"
	"github.com/skillsenselab/speakerline/logger"
	"github.com/skillsenselab/speakerline/resilience"
	"github.com/skillsenselab/speakerline/util"
)

// AdapterConfig tunes the normalization adapter.
type AdapterConfig struct {
	SampleRate int
	Language   string
	// Timeout bounds one engine call.
	Timeout time.Duration
	Retry   resilience.RetryConfig
	Breaker resilience.BreakerConfig
}

// ApplyDefaults fills zero fields.
func (c *AdapterConfig) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 4 * time.Second
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = resilience.DefaultRetryConfig()
	}
	if c.Breaker.Name == "" {
		c.Breaker.Name = "transcribe"
	}
}

// Adapter feeds audio to a transcription Provider and normalizes its
// output into ordered millisecond-ranged segments. Engine failures are
// absorbed: the affected audio simply yields no segments, and sentence
// emission stalls until the engine recovers while diarization keeps the
// timeline warm.
type Adapter struct {
	provider  Provider
	cfg       AdapterConfig
	breaker   *resilience.Breaker
	lastEndMS int64
	log       *logger.Logger
}

// NewAdapter wraps the given provider for one stream.
func NewAdapter(p Provider, cfg AdapterConfig) *Adapter {
	cfg.ApplyDefaults()
	log := logger.Get("transcribe")
	if cfg.Breaker.OnStateChange == nil {
		cfg.Breaker.OnStateChange = func(name string, from, to resilience.State) {
			log.Warn("engine breaker state change", logger.Fields(
				"breaker", name, "from", from.String(), "to", to.String(),
			))
		}
	}
	return &Adapter{
		provider: p,
		cfg:      cfg,
		breaker:  resilience.NewBreaker(cfg.Breaker),
		log:      log,
	}
}

// ProcessAudio transcribes one span of the stream and returns normalized
// segments, or nil when the engine failed or produced nothing. r is the
// sample range the PCM occupies in the stream; engine-relative times are
// rebased onto it.
func (a *Adapter) ProcessAudio(ctx context.Context, r audio.SampleRange, pcm []byte) []Segment {
	resp, err := resilience.Retry(ctx, a.cfg.Retry, func() (*Response, error) {
		var resp *Response
		err := a.breaker.Execute(func() error {
			callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
			defer cancel()
			var callErr error
			resp, callErr = a.provider.Transcribe(callCtx, Request{
				PCM:        pcm,
				SampleRate: a.cfg.SampleRate,
				Language:   a.cfg.Language,
			})
			if callErr != nil {
				return fmt.Errorf("provider %s: %w", a.provider.Name(), callErr)
			}
			return nil
		})
		return resp, err
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			a.log.Warn("transcription failed", logger.ErrorFields("transcribe", err))
		}
		return nil
	}
	return a.normalize(r, resp)
}

// normalize rebases engine output onto the stream clock, enforces
// non-decreasing order, and drops empty text.
func (a *Adapter) normalize(r audio.SampleRange, resp *Response) []Segment {
	if resp == nil || len(resp.Segments) == 0 {
		return nil
	}
	baseMS := audio.SamplesToMS(r.Start, a.cfg.SampleRate)
	spanMS := r.DurationMS(a.cfg.SampleRate)

	out := make([]Segment, 0, len(resp.Segments))
	for _, raw := range resp.Segments {
		text := util.SanitizeString(raw.Text)
		if text == "" {
			continue
		}
		startMS := baseMS + int64(raw.Start*1000)
		endMS := baseMS + int64(raw.End*1000)
		if endMS > baseMS+spanMS {
			endMS = baseMS + spanMS
		}
		if startMS < baseMS {
			startMS = baseMS
		}
		if endMS <= startMS {
			a.log.Warn("dropped degenerate segment range", logger.Fields(
				logger.FieldRangeFrom, startMS,
				logger.FieldRangeTo, endMS,
			))
			continue
		}
		conf := raw.Confidence
		if conf <= 0 {
			conf = 0.5
		}
		out = append(out, Segment{
			StartMS:    startMS,
			EndMS:      endMS,
			Text:       text,
			Confidence: conf,
			Final:      raw.Final,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartMS < out[j].StartMS })

	// Arrival order must be non-decreasing; rewinds are clamped, not fatal.
	filtered := out[:0]
	for _, s := range out {
		if s.EndMS <= a.lastEndMS {
			continue
		}
		if s.StartMS < a.lastEndMS {
			s.StartMS = a.lastEndMS
		}
		a.lastEndMS = s.EndMS
		filtered = append(filtered, s)
	}
	return filtered
}
