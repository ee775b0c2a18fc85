package provider

import "context"

// MockProvider is a deterministic Provider for tests. It never makes a
// network call.
type MockProvider struct {
	// Response, if set, is returned verbatim by Generate.
	Response string
	// Err, if set, is returned instead of a response.
	Err error
	// Calls records every request passed to Generate, in order.
	Calls []GenerationRequest
}

func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(ctx context.Context, req GenerationRequest) (GenerationResponse, error) {
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return GenerationResponse{}, m.Err
	}
	return GenerationResponse{
		Content:   m.Response,
		TokensIn:  uint64(len(req.UserPrompt)),
		TokensOut: uint64(len(m.Response)),
		Model:     req.Model,
	}, nil
}
