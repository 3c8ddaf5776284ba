// Package llm builds the configured ModelClient backend.
package llm

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/health"
	"github.com/genomemcp/genomemcp/internal/llm/ollama"
	"github.com/genomemcp/genomemcp/internal/llm/openai"
)

// Backend names.
const (
	Ollama     = "ollama"
	LlamaCpp   = "llamacpp"
	OpenRouter = "openrouter"
	OpenAI     = "openai"
)

const openAIURL = "https://api.openai.com/v1"

// Options selects and configures a backend.
type Options struct {
	Backend string
	Model   string
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is a ModelClient that also reports its health.
type Client interface {
	core.ModelClient
	health.Checker
}

type factory func(o Options, logger *zap.Logger) (Client, error)

var backends = map[string]factory{
	Ollama: func(o Options, logger *zap.Logger) (Client, error) {
		return ollama.New(o.BaseURL, o.Model, o.Timeout, logger), nil
	},
	LlamaCpp: func(o Options, logger *zap.Logger) (Client, error) {
		return compatible(o, LlamaCpp, openai.LlamaCppURL, false, logger)
	},
	OpenRouter: func(o Options, logger *zap.Logger) (Client, error) {
		return compatible(o, OpenRouter, openai.OpenRouterURL, true, logger)
	},
	OpenAI: func(o Options, logger *zap.Logger) (Client, error) {
		return compatible(o, OpenAI, openAIURL, true, logger)
	},
}

func compatible(o Options, label, defaultURL string, needsKey bool, logger *zap.Logger) (Client, error) {
	if o.BaseURL == "" {
		o.BaseURL = defaultURL
	}
	if needsKey && o.APIKey == "" {
		return nil, fmt.Errorf("llm: backend %q requires an API key", label)
	}
	if o.Model == "" {
		return nil, fmt.Errorf("llm: backend %q requires a model", label)
	}
	c := openai.New(o.BaseURL, o.APIKey, o.Model, o.Timeout, logger)
	c.Label = label
	return c, nil
}

// Backends lists the supported backend names.
func Backends() []string {
	out := make([]string, 0, len(backends))
	for name := range backends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New returns the client for o.Backend; an empty backend means Ollama.
func New(o Options, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	name := strings.ToLower(strings.TrimSpace(o.Backend))
	if name == "" {
		name = Ollama
	}
	f, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("llm: unknown backend %q (want one of %s)", o.Backend, strings.Join(Backends(), ", "))
	}
	return f(o, logger.Named("llm"))
}
