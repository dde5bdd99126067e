package diarize

import "context"

// MockProvider is a scriptable Provider for tests and offline runs.
type MockProvider struct {
	// ProviderName reported by Name; "mock" when empty.
	ProviderName string
	// Available reported by IsAvailable.
	Available bool
	// DiarizeFunc handles calls; a nil func returns an empty response.
	DiarizeFunc func(ctx context.Context, req Request) (*Response, error)
}

// Name returns the provider name.
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// IsAvailable reports the scripted availability.
func (m *MockProvider) IsAvailable(_ context.Context) bool { return m.Available }

// Diarize delegates to DiarizeFunc.
func (m *MockProvider) Diarize(ctx context.Context, req Request) (*Response, error) {
	if m.DiarizeFunc == nil {
		return &Response{}, nil
	}
	return m.DiarizeFunc(ctx, req)
}
