package agent

import (
	"context"
	"sync"
)

// Runner answers one query.
type Runner interface {
	Run(ctx context.Context, query string) (string, error)
}

// Exchange is one query and its answer.
type Exchange struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// ChatSession is an interactive session. Each query runs with fresh loop
// state; the session only records what was asked and answered.
type ChatSession struct {
	runner Runner

	mu      sync.Mutex
	history []Exchange
}

// NewChatSession wraps r.
func NewChatSession(r Runner) *ChatSession {
	return &ChatSession{runner: r}
}

// Chat runs input and records the exchange. Failed runs are not recorded.
func (s *ChatSession) Chat(ctx context.Context, input string) (string, error) {
	answer, err := s.runner.Run(ctx, input)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.history = append(s.history, Exchange{Query: input, Answer: answer})
	s.mu.Unlock()
	return answer, nil
}

// History returns a copy of the recorded exchanges, oldest first.
func (s *ChatSession) History() []Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Exchange(nil), s.history...)
}

// Clear forgets all exchanges.
func (s *ChatSession) Clear() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}
