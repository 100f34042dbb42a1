package llm

import "context"

// MockClient is a test double for Client.
type MockClient struct {
	ProviderName string
	CompleteFunc func(ctx context.Context, req Request) (*Reply, error)
}

func (m *MockClient) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *MockClient) Complete(ctx context.Context, req Request) (*Reply, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return &Reply{Text: "mock response"}, nil
}

// ScriptedClient replays a fixed sequence of replies, then repeats the
// last one. Useful for driving the orchestration loop in tests.
type ScriptedClient struct {
	Replies []*Reply
	Calls   []Request
	next    int
}

func (s *ScriptedClient) Name() string { return "scripted" }

func (s *ScriptedClient) Complete(_ context.Context, req Request) (*Reply, error) {
	s.Calls = append(s.Calls, req)
	if len(s.Replies) == 0 {
		return &Reply{}, nil
	}
	reply := s.Replies[s.next]
	if s.next < len(s.Replies)-1 {
		s.next++
	}
	return reply, nil
}
