// Package openai is a ModelClient for OpenAI-compatible /chat/completions
// endpoints: the llama.cpp server, OpenRouter and OpenAI itself.
package openai

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

const tracerName = "github.com/genomemcp/genomemcp/internal/llm/openai"

// Well-known base URLs.
const (
	OpenRouterURL = "https://openrouter.ai/api/v1"
	LlamaCppURL   = "http://localhost:8080/v1"
)

// DefaultTimeout bounds a single completion.
const DefaultTimeout = 120 * time.Second

// availabilityTimeout bounds the /models probe.
const availabilityTimeout = 5 * time.Second

var _ core.ModelClient = (*Client)(nil)

// Client calls an OpenAI-compatible chat completions API.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	// Label prefixes Name(), e.g. "llamacpp" or "openrouter".
	Label  string
	HTTP   *http.Client
	Health *health.Tracker
	Logger *zap.Logger
}

// New creates a client. An empty apiKey sends no Authorization header.
func New(baseURL, apiKey, model string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		Label:   "openai",
		HTTP:    &http.Client{Timeout: timeout},
		Health:  health.NewTracker("model"),
		Logger:  logger,
	}
}

// Name identifies the backend and model.
func (c *Client) Name() string {
	return c.Label + "/" + c.Model
}

// HealthCheck reports the outcome of recent completions.
func (c *Client) HealthCheck() health.ComponentHealth {
	h := c.Health.HealthCheck()
	h.Name = c.Name()
	return h
}

// chatRequest is the request body for chat completions.
type chatRequest struct {
	Model       string                `json:"model"`
	Messages    []core.Message        `json:"messages"`
	Temperature float64               `json:"temperature"`
	Tools       []core.ToolDefinition `json:"tools,omitempty"`
	ToolChoice  any                   `json:"tool_choice,omitempty"`
}

// responseToolCall carries arguments as raw JSON: servers send either an
// encoded string or an object.
type responseToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

// chatResponse includes tool_calls in the choice message.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   json.RawMessage    `json:"content"`
			Role      string             `json:"role"`
			ToolCalls []responseToolCall `json:"tool_calls,omitempty"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Chat sends the history and tool definitions and decodes the first choice.
func (c *Client) Chat(ctx context.Context, messages []core.Message, tools []core.ToolDefinition, temperature float64) (core.ChatResponse, error) {
	resp, err := c.chat(ctx, messages, tools, temperature)
	c.Health.Record(err)
	return resp, err
}

func (c *Client) chat(ctx context.Context, messages []core.Message, tools []core.ToolDefinition, temperature float64) (core.ChatResponse, error) {
	if c.Model == "" {
		return core.ChatResponse{}, errors.New("openai: model not set")
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "llm.chat", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.backend", c.Label),
		attribute.String("llm.model", c.Model),
		attribute.Int("llm.messages", len(messages)),
		attribute.Int("llm.tools", len(tools)),
	)

	body := chatRequest{
		Model:       c.Model,
		Messages:    messages,
		Temperature: temperature,
		Tools:       tools,
	}
	if len(tools) > 0 {
		body.ToolChoice = "auto"
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return core.ChatResponse{}, err
	}

	endpoint := c.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return core.ChatResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return core.ChatResponse{}, &core.TransportError{URL: endpoint, Cause: err}
	}
	defer resp.Body.Close()
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.ChatResponse{}, &core.TransportError{URL: endpoint, StatusCode: resp.StatusCode, Cause: err}
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.Logger.Debug("chat completion",
		zap.String("model", c.Model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		terr := &core.TransportError{URL: endpoint, StatusCode: resp.StatusCode, Cause: fmt.Errorf("%s", snippet(bodyBytes))}
		span.SetStatus(codes.Error, terr.Error())
		return core.ChatResponse{}, terr
	}

	var out chatResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return core.ChatResponse{}, &core.UpstreamDataError{Source: c.Label, Cause: err}
	}
	if out.Error != nil {
		return core.ChatResponse{}, fmt.Errorf("%s: %s", c.Label, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return core.ChatResponse{}, &core.UpstreamDataError{Source: c.Label, Cause: errors.New("no choices in response")}
	}

	choice := out.Choices[0]
	result := core.ChatResponse{
		Content:      parseContent(choice.Message.Content),
		FinishReason: choice.FinishReason,
	}
	for i, tc := range choice.Message.ToolCalls {
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		args, err := decodeArguments(tc.Function.Arguments)
		if err != nil {
			c.Logger.Warn("undecodable tool arguments",
				zap.String("tool", tc.Function.Name), zap.Error(err))
		}
		result.ToolInvocations = append(result.ToolInvocations, core.ToolInvocation{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return result, nil
}

// IsAvailable reports whether GET /models answers 200.
func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/models", nil)
	if err != nil {
		return false
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// decodeArguments accepts a JSON-encoded string or an object. An empty or
// undecodable value yields an empty map so argument validation reports it.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return args, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return args, err
		}
		if strings.TrimSpace(s) == "" {
			return args, nil
		}
		raw = []byte(s)
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return map[string]any{}, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// parseContent parses API content that may be string, null, or array of parts (e.g. [{"type":"text","text":"..."}]).
func parseContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var b strings.Builder
		for _, p := range parts {
			if p.Type == "text" {
				b.WriteString(p.Text)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return parseContentArrayGeneric(raw)
}

// parseContentArrayGeneric extracts text from an array of objects that carry a "text" key.
func parseContentArrayGeneric(raw json.RawMessage) string {
	var parts []map[string]any
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		if t, ok := p["text"].(string); ok {
			b.WriteString(t)
		}
	}
	return b.String()
}

func snippet(b []byte) string {
	const max = 512
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
