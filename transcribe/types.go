package transcribe

import "context"

// Segment is a normalized, time-ranged piece of transcript.
type Segment struct {
	StartMS    int64   `json:"start_ms"`
	EndMS      int64   `json:"end_ms"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	// Final marks a segment the engine will not revise.
	Final bool `json:"final"`
}

// Request holds one batch of audio for the engine.
type Request struct {
	// PCM is s16le mono audio.
	PCM []byte
	// SampleRate of the PCM.
	SampleRate int
	// Language hint, e.g. "en"; empty for auto-detect.
	Language string
}

// RawSegment is one engine output span, times in seconds relative to the
// start of the submitted audio.
type RawSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Final      bool    `json:"final"`
}

// Response holds the result of a transcription call.
type Response struct {
	Segments []RawSegment `json:"segments"`
	Language string       `json:"language,omitempty"`
}

// Provider is the interface transcription backends must implement.
type Provider interface {
	// Name returns the provider's unique name.
	Name() string
	// IsAvailable checks if the provider is ready to handle requests.
	IsAvailable(ctx context.Context) bool
	// Transcribe sends audio for transcription and returns the result.
	Transcribe(ctx context.Context, req Request) (*Response, error)
}
