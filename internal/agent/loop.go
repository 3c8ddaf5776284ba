package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/tools"
)

// DefaultMaxIterations caps model calls per Run.
const DefaultMaxIterations = 10

// DefaultTemperature is the sampling temperature when none is configured.
const DefaultTemperature = 0.7

// IterationLimitMessage is returned when the cap is reached without a final answer.
const IterationLimitMessage = "I apologize, but I couldn't complete the analysis within the iteration limit."

// maxParallelTools bounds concurrent invocations within one turn.
const maxParallelTools = 4

// Executor is what the loop needs from a capability registry.
type Executor interface {
	Definitions() []core.ToolDefinition
	Invoke(ctx context.Context, name string, arguments map[string]any) tools.Result
}

// Loop runs the agent: system + user message -> model with tools -> execute
// tool calls -> repeat until the model answers without tool calls or the
// iteration cap is reached.
type Loop struct {
	Model         core.ModelClient
	Tools         Executor
	SystemPrompt  string
	MaxIterations int
	Temperature   float64
	// Parallel runs the invocations of one turn concurrently. Result
	// messages keep receipt order either way.
	Parallel bool
	// MaxToolOutputRunes caps each tool result placed in history (0 = no cap).
	MaxToolOutputRunes int
	Observer           Observer
	Logger             *zap.Logger
}

// Result is the outcome of one Run.
type Result struct {
	Answer       string
	Messages     []core.Message
	Iterations   int
	LimitReached bool
}

// New returns a loop with the default prompt, cap and temperature.
func New(model core.ModelClient, exec Executor, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		Model:         model,
		Tools:         exec,
		SystemPrompt:  GenomicsSystemPrompt,
		MaxIterations: DefaultMaxIterations,
		Temperature:   DefaultTemperature,
		Logger:        logger,
	}
}

// Run answers query. The only error is a failed model call; tool failures
// are reported to the model as error results.
func (l *Loop) Run(ctx context.Context, query string) (string, error) {
	res, err := l.Execute(ctx, query)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// Execute is Run with the full transcript. Every call starts from fresh state.
func (l *Loop) Execute(ctx context.Context, query string) (Result, error) {
	if l.Model == nil || l.Tools == nil {
		return Result{}, fmt.Errorf("agent: model and tools are required")
	}
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	obs := l.Observer
	if obs == nil {
		obs = LogObserver{Logger: logger}
	}
	maxIter := l.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	prompt := l.SystemPrompt
	if prompt == "" {
		prompt = GenomicsSystemPrompt
	}

	messages := []core.Message{
		{Role: core.RoleSystem, Content: prompt},
		{Role: core.RoleUser, Content: query},
	}
	defs := l.Tools.Definitions()

	for i := 0; i < maxIter; i++ {
		obs.IterationStarted(i + 1)
		resp, err := l.Model.Chat(ctx, messages, defs, l.Temperature)
		if err != nil {
			logger.Error("model call failed", zap.String("model", l.Model.Name()), zap.Int("iteration", i+1), zap.Error(err))
			return Result{Messages: messages, Iterations: i + 1}, fmt.Errorf("agent: model %s: %w", l.Model.Name(), err)
		}
		if !resp.HasToolCalls() {
			messages = append(messages, core.Message{Role: core.RoleAssistant, Content: resp.Content})
			return Result{Answer: resp.Content, Messages: messages, Iterations: i + 1}, nil
		}

		calls := make([]core.ToolCall, len(resp.ToolInvocations))
		for j, inv := range resp.ToolInvocations {
			calls[j] = inv.ToolCall()
		}
		messages = append(messages, core.Message{
			Role:      core.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: calls,
		})

		results := l.invokeAll(ctx, resp.ToolInvocations, obs)
		for j, inv := range resp.ToolInvocations {
			messages = append(messages, core.Message{
				Role:       core.RoleTool,
				Content:    tools.TruncateOutput(results[j].Content(), l.MaxToolOutputRunes),
				ToolCallID: inv.ID,
			})
		}
	}

	logger.Warn("iteration limit reached", zap.Int("max_iterations", maxIter))
	return Result{Answer: IterationLimitMessage, Messages: messages, Iterations: maxIter, LimitReached: true}, nil
}

// invokeAll returns one result per invocation, index-aligned with invs.
func (l *Loop) invokeAll(ctx context.Context, invs []core.ToolInvocation, obs Observer) []tools.Result {
	results := make([]tools.Result, len(invs))
	if !l.Parallel || len(invs) < 2 {
		for i, inv := range invs {
			obs.ToolCalled(inv)
			results[i] = l.Tools.Invoke(ctx, inv.Name, inv.Arguments)
			obs.ToolReturned(inv, results[i])
		}
		return results
	}

	for _, inv := range invs {
		obs.ToolCalled(inv)
	}
	var g errgroup.Group
	g.SetLimit(maxParallelTools)
	for i, inv := range invs {
		g.Go(func() error {
			results[i] = l.Tools.Invoke(ctx, inv.Name, inv.Arguments)
			return nil
		})
	}
	_ = g.Wait()
	for i, inv := range invs {
		obs.ToolReturned(inv, results[i])
	}
	return results
}
