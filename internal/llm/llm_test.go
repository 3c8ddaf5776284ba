package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genomemcp/genomemcp/internal/core"
)

func TestNew_Backends(t *testing.T) {
	cases := []struct {
		opts Options
		name string
	}{
		{Options{}, "ollama/qwen2.5:7b"},
		{Options{Backend: "Ollama", Model: "llama3.1"}, "ollama/llama3.1"},
		{Options{Backend: LlamaCpp, Model: "qwen"}, "llamacpp/qwen"},
		{Options{Backend: OpenRouter, Model: "x/y", APIKey: "k"}, "openrouter/x/y"},
		{Options{Backend: OpenAI, Model: "gpt-4o-mini", APIKey: "k"}, "openai/gpt-4o-mini"},
	}
	for _, tc := range cases {
		c, err := New(tc.opts, nil)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.name, c.Name())
		_, lists := c.(core.ModelLister)
		assert.Equal(t, tc.opts.Backend == "" || tc.opts.Backend == "Ollama", lists, tc.name)
	}
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(Options{Backend: "bard"}, nil)
	assert.ErrorContains(t, err, "unknown backend")

	_, err = New(Options{Backend: OpenRouter, Model: "m"}, nil)
	assert.ErrorContains(t, err, "API key")

	_, err = New(Options{Backend: LlamaCpp}, nil)
	assert.ErrorContains(t, err, "model")
}

func TestBackends(t *testing.T) {
	assert.Equal(t, []string{"llamacpp", "ollama", "openai", "openrouter"}, Backends())
}
