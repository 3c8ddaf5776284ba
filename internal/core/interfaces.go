package core

import (
	"context"
)

// ModelClient abstracts a chat-completion endpoint (Ollama, llama.cpp server, OpenRouter).
// Every call carries the full tool definition set.
type ModelClient interface {
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition, temperature float64) (ChatResponse, error)
	IsAvailable(ctx context.Context) bool
	Name() string
}

// ModelLister is implemented by backends that can enumerate installed models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}
