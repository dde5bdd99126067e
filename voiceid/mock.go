package voiceid

import "context"

// MockProvider is a configurable embedder for tests.
type MockProvider struct {
	ProviderName string
	Available    bool
	EmbedFunc    func(ctx context.Context, req Request) (Embedding, error)
}

var _ Provider = (*MockProvider)(nil)

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool { return m.Available }

func (m *MockProvider) Embed(ctx context.Context, req Request) (Embedding, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, req)
	}
	return Embedding{1, 0, 0}, nil
}
