package agent

import (
	"encoding/json"
	"io"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/tools"
)

// previewRunes is the length of result previews.
const previewRunes = 200

// Observer sees loop progress. It must not alter control flow.
type Observer interface {
	IterationStarted(n int)
	ToolCalled(inv core.ToolInvocation)
	ToolReturned(inv core.ToolInvocation, res tools.Result)
}

// LogObserver logs progress at debug level.
type LogObserver struct {
	Logger *zap.Logger
}

func (o LogObserver) IterationStarted(n int) {
	o.Logger.Debug("iteration", zap.Int("n", n))
}

func (o LogObserver) ToolCalled(inv core.ToolInvocation) {
	o.Logger.Debug("tool call", zap.String("id", inv.ID), zap.String("tool", inv.Name), zap.Any("args", inv.Arguments))
}

func (o LogObserver) ToolReturned(inv core.ToolInvocation, res tools.Result) {
	if res.IsError() {
		o.Logger.Debug("tool error", zap.String("id", inv.ID), zap.String("tool", inv.Name), zap.String("error", res.Err))
		return
	}
	o.Logger.Debug("tool result", zap.String("id", inv.ID), zap.String("tool", inv.Name),
		zap.String("preview", tools.Preview(res.Content(), previewRunes)))
}

// Colors are dropped automatically when output is not a terminal.
var (
	iterColor = color.New(color.Faint)
	callColor = color.New(color.FgCyan)
	okColor   = color.New(color.FgGreen)
	errColor  = color.New(color.FgRed)
)

// WriterObserver prints verbose progress for a terminal.
type WriterObserver struct {
	W io.Writer
}

func (o WriterObserver) IterationStarted(n int) {
	iterColor.Fprintf(o.W, "Iteration %d...\n", n)
}

func (o WriterObserver) ToolCalled(inv core.ToolInvocation) {
	args, _ := json.Marshal(inv.Arguments)
	callColor.Fprintf(o.W, "🔧 Calling %s(%s)\n", inv.Name, args)
}

func (o WriterObserver) ToolReturned(_ core.ToolInvocation, res tools.Result) {
	if res.IsError() {
		errColor.Fprintf(o.W, "✗ %s\n", res.Err)
		return
	}
	okColor.Fprintf(o.W, "✓ Result: %s\n", tools.Preview(res.Content(), previewRunes))
}

// Observers fans out to several observers in order.
type Observers []Observer

func (obs Observers) IterationStarted(n int) {
	for _, o := range obs {
		o.IterationStarted(n)
	}
}

func (obs Observers) ToolCalled(inv core.ToolInvocation) {
	for _, o := range obs {
		o.ToolCalled(inv)
	}
}

func (obs Observers) ToolReturned(inv core.ToolInvocation, res tools.Result) {
	for _, o := range obs {
		o.ToolReturned(inv, res)
	}
}
