package diarize

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/skillsenselab/speakerline/audio"
	"github.com/skillsenselab/speakerline/logger"
	"github.com/skillsenselab/speakerline/resilience"
)

// AdapterConfig tunes the normalization adapter.
type AdapterConfig struct {
	SampleRate int
	// Timeout bounds one engine call.
	Timeout time.Duration
	Retry   resilience.RetryConfig
	Breaker resilience.BreakerConfig
}

// ApplyDefaults fills zero fields.
func (c *AdapterConfig) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 2 * time.Second
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry = resilience.DefaultRetryConfig()
	}
	if c.Breaker.Name == "" {
		c.Breaker.Name = "diarize"
	}
}

// Adapter feeds windows to a diarization Provider and normalizes its
// second-based output into sample-indexed frames. Engine failures are
// absorbed: the affected window simply yields no frames.
type Adapter struct {
	provider Provider
	cfg      AdapterConfig
	breaker  *resilience.Breaker
	version  atomic.Uint64
	log      *logger.Logger
}

// NewAdapter wraps the given provider. One adapter serves one stream, so
// its patch version counter is the stream's patch version sequence.
func NewAdapter(p Provider, cfg AdapterConfig) *Adapter {
	cfg.ApplyDefaults()
	log := logger.Get("diarize")
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

// ProcessWindow diarizes one window and returns normalized frames, or
// nil when the engine failed or produced nothing.
func (a *Adapter) ProcessWindow(ctx context.Context, w audio.Window) []Frame {
	resp, err := a.call(ctx, Request{PCM: w.PCM, SampleRate: a.cfg.SampleRate})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			a.log.Warn("window diarization failed", logger.ErrorFields("diarize", err))
		}
		return nil
	}
	return a.normalize(w.Range, resp, false)
}

// Refine requests a higher-quality estimate over already-processed audio
// and returns it as a versioned patch. Returns nil when the engine
// failed or produced nothing.
func (a *Adapter) Refine(ctx context.Context, r audio.SampleRange, pcm []byte) *Patch {
	resp, err := a.call(ctx, Request{PCM: pcm, SampleRate: a.cfg.SampleRate, Refine: true})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			a.log.Warn("refinement failed", logger.ErrorFields("refine", err))
		}
		return nil
	}
	frames := a.normalize(r, resp, true)
	if len(frames) == 0 {
		return nil
	}
	return &Patch{Range: r, Frames: frames, Version: a.version.Add(1)}
}

func (a *Adapter) call(ctx context.Context, req Request) (*Response, error) {
	return resilience.Retry(ctx, a.cfg.Retry, func() (*Response, error) {
		var resp *Response
		err := a.breaker.Execute(func() error {
			callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
			defer cancel()
			var callErr error
			resp, callErr = a.provider.Diarize(callCtx, req)
			if callErr != nil {
				return fmt.Errorf("provider %s: %w", a.provider.Name(), callErr)
			}
			return nil
		})
		return resp, err
	})
}

// normalize converts engine estimates (seconds, relative to the window)
// into ordered, non-overlapping, sample-indexed frames. Where two
// estimates overlap in time the intersection becomes an OVERLAP frame.
func (a *Adapter) normalize(window audio.SampleRange, resp *Response, patch bool) []Frame {
	if resp == nil || len(resp.Estimates) == 0 {
		return nil
	}

	frames := make([]Frame, 0, len(resp.Estimates))
	for _, est := range resp.Estimates {
		r := audio.SampleRange{
			Start: window.Start + secondsToSamples(est.Start, a.cfg.SampleRate),
			End:   window.Start + secondsToSamples(est.End, a.cfg.SampleRate),
		}
		clamped, cut := r.Clamp(window)
		if cut {
			a.log.Warn("clamped estimate outside window", logger.Fields(
				logger.FieldRangeFrom, r.Start,
				logger.FieldRangeTo, r.End,
			))
		}
		if clamped.Empty() {
			continue
		}
		conf := est.Confidence
		if conf <= 0 {
			conf = 0.5 // engine gave no confidence; treat as even odds
		}
		frames = append(frames, Frame{
			Range:      clamped,
			Label:      ParseLabel(est.Speaker),
			Confidence: conf,
			Patch:      patch,
		})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].Range.Start < frames[j].Range.Start })
	return resolveOverlaps(frames)
}

// resolveOverlaps rewrites a sorted frame list so ranges never overlap.
// Intersections between different labels become explicit OVERLAP frames;
// same-label intersections merge.
func resolveOverlaps(frames []Frame) []Frame {
	var out []Frame
	for _, f := range frames {
		if len(out) == 0 {
			out = append(out, f)
			continue
		}
		prev := &out[len(out)-1]
		if f.Range.Start >= prev.Range.End {
			out = append(out, f)
			continue
		}
		if f.Label == prev.Label {
			if f.Range.End > prev.Range.End {
				prev.Range.End = f.Range.End
			}
			continue
		}
		cross := audio.SampleRange{Start: f.Range.Start, End: min64(prev.Range.End, f.Range.End)}
		tail := audio.SampleRange{Start: cross.End, End: f.Range.End}
		prevConf := prev.Confidence
		prev.Range.End = cross.Start
		if prev.Range.Empty() {
			out = out[:len(out)-1]
		}
		out = append(out, Frame{
			Range:      cross,
			Label:      Overlap(),
			Confidence: minFloat(f.Confidence, prevConf),
			Patch:      f.Patch,
		})
		if !tail.Empty() {
			f.Range = tail
			out = append(out, f)
		}
	}
	return out
}

func secondsToSamples(sec float64, rate int) int64 {
	return int64(sec * float64(rate))
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
