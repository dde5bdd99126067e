package voiceid

import (
	"context"
	"math"
)

// Embedding is a speaker voice embedding vector.
type Embedding []float32

// Profile is an enrolled speaker with a reference embedding.
type Profile struct {
	Identity  string    `json:"identity"`
	Embedding Embedding `json:"embedding"`
}

// Request carries the audio span to embed.
type Request struct {
	// PCM is mono 16-bit little-endian audio.
	PCM []byte
	// SampleRate is the sample rate of PCM in Hz.
	SampleRate int
}

// Provider computes voice embeddings for audio spans.
type Provider interface {
	// Name returns the provider name for logging and registration.
	Name() string

	// IsAvailable reports whether the provider can serve requests.
	IsAvailable(ctx context.Context) bool

	// Embed computes an embedding for the given audio.
	Embed(ctx context.Context, req Request) (Embedding, error)
}

// Cosine returns the cosine similarity of two embeddings, in [-1, 1].
// Mismatched lengths or zero vectors yield 0.
func Cosine(a, b Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
