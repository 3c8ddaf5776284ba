// Package ollama is a ModelClient for the native Ollama chat API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/health"
)

const tracerName = "github.com/genomemcp/genomemcp/internal/llm/ollama"

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "qwen2.5:7b"
	DefaultTimeout = 120 * time.Second
)

const availabilityTimeout = 5 * time.Second

var (
	_ core.ModelClient = (*Client)(nil)
	_ core.ModelLister = (*Client)(nil)
)

// Client talks to an Ollama server.
type Client struct {
	BaseURL string
	Model   string
	HTTP    *http.Client
	Health  *health.Tracker
	Logger  *zap.Logger
}

// New creates a client; empty arguments take the package defaults.
func New(baseURL, model string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		HTTP:    &http.Client{Timeout: timeout},
		Health:  health.NewTracker("model"),
		Logger:  logger,
	}
}

// Name identifies the backend and model.
func (c *Client) Name() string { return "ollama/" + c.Model }

// HealthCheck reports the outcome of recent completions.
func (c *Client) HealthCheck() health.ComponentHealth {
	h := c.Health.HealthCheck()
	h.Name = c.Name()
	return h
}

type chatRequest struct {
	Model    string                `json:"model"`
	Messages []message             `json:"messages"`
	Stream   bool                  `json:"stream"`
	Options  options               `json:"options"`
	Tools    []core.ToolDefinition `json:"tools,omitempty"`
}

type options struct {
	Temperature float64 `json:"temperature"`
}

// message is Ollama's chat message; tool call arguments are objects.
type message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type toolCall struct {
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

type chatResponse struct {
	Model   string  `json:"model"`
	Message message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// toWire converts history into Ollama's shape, decoding the string
// arguments carried on assistant tool calls.
func toWire(msgs []core.Message) []message {
	out := make([]message, 0, len(msgs))
	for _, m := range msgs {
		wm := message{Role: m.Role, Content: m.Content}
		for _, tc := range m.ToolCalls {
			var call toolCall
			call.Function.Name = tc.Function.Name
			call.Function.Arguments = map[string]any{}
			if tc.Function.Arguments != "" {
				_ = json.Unmarshal([]byte(tc.Function.Arguments), &call.Function.Arguments)
			}
			wm.ToolCalls = append(wm.ToolCalls, call)
		}
		out = append(out, wm)
	}
	return out
}

// Chat posts to /api/chat with streaming disabled.
func (c *Client) Chat(ctx context.Context, messages []core.Message, tools []core.ToolDefinition, temperature float64) (core.ChatResponse, error) {
	resp, err := c.chat(ctx, messages, tools, temperature)
	c.Health.Record(err)
	return resp, err
}

func (c *Client) chat(ctx context.Context, messages []core.Message, tools []core.ToolDefinition, temperature float64) (core.ChatResponse, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.chat", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.backend", "ollama"),
		attribute.String("llm.model", c.Model),
		attribute.Int("llm.messages", len(messages)),
		attribute.Int("llm.tools", len(tools)),
	)

	payload, err := json.Marshal(chatRequest{
		Model:    c.Model,
		Messages: toWire(messages),
		Stream:   false,
		Options:  options{Temperature: temperature},
		Tools:    tools,
	})
	if err != nil {
		return core.ChatResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.BaseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return core.ChatResponse{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return core.ChatResponse{}, &core.TransportError{URL: endpoint, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.ChatResponse{}, &core.TransportError{URL: endpoint, StatusCode: resp.StatusCode, Cause: err}
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.Logger.Debug("ollama chat",
		zap.String("model", c.Model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		terr := &core.TransportError{URL: endpoint, StatusCode: resp.StatusCode, Cause: fmt.Errorf("%s", strings.TrimSpace(string(body)))}
		span.SetStatus(codes.Error, terr.Error())
		return core.ChatResponse{}, terr
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return core.ChatResponse{}, &core.UpstreamDataError{Source: "ollama", Cause: err}
	}
	if out.Error != "" {
		return core.ChatResponse{}, errors.New("ollama: " + out.Error)
	}

	result := core.ChatResponse{Content: out.Message.Content, FinishReason: "stop"}
	for i, tc := range out.Message.ToolCalls {
		args := tc.Function.Arguments
		if args == nil {
			args = map[string]any{}
		}
		result.ToolInvocations = append(result.ToolInvocations, core.ToolInvocation{
			ID:        fmt.Sprintf("call_%d", i),
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	if result.HasToolCalls() {
		result.FinishReason = "tool_calls"
	}
	return result, nil
}

// IsAvailable reports whether GET /api/tags answers 200.
func (c *Client) IsAvailable(ctx context.Context) bool {
	resp, err := c.tags(ctx)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ListModels returns the names of installed models.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.tags(ctx)
	if err != nil {
		return nil, &core.TransportError{URL: c.BaseURL + "/api/tags", Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &core.TransportError{URL: c.BaseURL + "/api/tags", StatusCode: resp.StatusCode}
	}
	var out tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &core.UpstreamDataError{Source: "ollama", Cause: err}
	}
	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// tags issues GET /api/tags; the caller closes the body. The context
// deadline is released when the body is closed.
func (c *Client) tags(ctx context.Context) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/tags", nil)
	if err != nil {
		cancel()
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
