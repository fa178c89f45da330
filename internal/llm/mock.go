package llm

import "context"

// MockClient is a test double for the LLM Client interface. It also backs
// the "mock" provider, so the app runs end to end with no model installed.
type MockClient struct {
	Response  *Response
	Responses []*Response // consumed in order when set, for scripted chats
	Err       error
	Calls     []string // records prompts sent
}

// Complete records the call and returns the next mock response.
func (m *MockClient) Complete(ctx context.Context, prompt string) (*Response, error) {
	m.Calls = append(m.Calls, prompt)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) > 0 {
		r := m.Responses[0]
		m.Responses = m.Responses[1:]
		return r, nil
	}
	if m.Response != nil {
		return m.Response, nil
	}
	return &Response{Content: "(mock reply)", Provider: "mock"}, nil
}
