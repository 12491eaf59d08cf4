package llm

import "context"

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response   string
	Err        error
	Embedding  []float32
	EmbedErr   error
	LastPrompt string
	Calls      int
	// Block hace que Generate espere a que el contexto expire.
	Block bool
}

func (m *MockClient) Generate(ctx context.Context, systemPrompt, prompt string) (string, error) {
	m.Calls++
	m.LastPrompt = prompt
	if m.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.Response, m.Err
}

func (m *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	return m.Embedding, m.EmbedErr
}
