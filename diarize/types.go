package diarize

import (
	"context"

	"github.com/skillsenselab/speakerline/audio"
)

// Frame is a normalized, sample-indexed diarization estimate.
type Frame struct {
	Range      audio.SampleRange
	Label      Label
	Confidence float64
	// Patch marks frames from a refinement pass over audio already
	// processed at lower latency.
	Patch bool
}

// Patch is a revised estimate over a sample range. Versions are
// monotonically increasing per stream; the timeline store rejects
// anything at or below the version it already holds for the range.
type Patch struct {
	Range   audio.SampleRange
	Frames  []Frame
	Version uint64
}

// Request holds one diarization window for the engine.
type Request struct {
	// PCM is s16le mono audio for the window.
	PCM []byte
	// SampleRate of the PCM.
	SampleRate int
	// Refine requests a higher-quality, higher-latency estimate.
	Refine bool
}

// Estimate is one speaker-attributed span in engine output, with times
// in seconds relative to the start of the submitted window.
type Estimate struct {
	Speaker    string  `json:"speaker"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Response holds the result of a diarization call.
type Response struct {
	Estimates   []Estimate `json:"segments"`
	NumSpeakers int        `json:"num_speakers"`
}

// Provider is the interface diarization backends must implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
	// Diarize sends one audio window for speaker diarization.
	Diarize(ctx context.Context, req Request) (*Response, error)
}
