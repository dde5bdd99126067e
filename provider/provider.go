package provider

import "context"

// Provider is the base interface every engine backend implements,
// whether it transcribes, diarizes, or embeds.
type Provider interface {
	// Name returns the backend's unique registered name.
	Name() string
	// IsAvailable reports whether the backend can take requests now.
	// For sidecar backends this is a health probe.
	IsAvailable(ctx context.Context) bool
}

// Factory builds a provider instance from its config section.
type Factory[T Provider] func(cfg map[string]any) (T, error)
