package transcribe

import "context"

// MockProvider is a scriptable Provider for tests and offline runs.
type MockProvider struct {
	// ProviderName reported by Name; "mock" when empty.
	ProviderName string
	// Available reported by IsAvailable.
	Available bool
	// TranscribeFunc handles calls; a nil func returns an empty response.
	TranscribeFunc func(ctx context.Context, req Request) (*Response, error)
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

// Transcribe delegates to TranscribeFunc.
func (m *MockProvider) Transcribe(ctx context.Context, req Request) (*Response, error) {
	if m.TranscribeFunc == nil {
		return &Response{}, nil
	}
	return m.TranscribeFunc(ctx, req)
}
