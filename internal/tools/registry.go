// Package tools is the capability registry: the fixed table of named,
// schema-described tools the model (or a direct caller) may invoke.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
)

// Handler runs a capability with validated arguments. It returns either a
// string (markdown report) or any JSON-encodable value.
type Handler func(ctx context.Context, args Args) (any, error)

// Capability pairs a spec with its handler.
type Capability struct {
	Spec    core.CapabilitySpec
	Handler Handler
}

// Registry maps capability names to handlers. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	order  []string
	caps   map[string]Capability
	logger *zap.Logger
}

// NewRegistry builds a registry. Duplicate or empty names are a
// configuration error.
func NewRegistry(logger *zap.Logger, caps ...Capability) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{caps: make(map[string]Capability, len(caps)), logger: logger}
	for _, c := range caps {
		name := c.Spec.Name
		if name == "" {
			return nil, fmt.Errorf("tools: capability with empty name")
		}
		if c.Handler == nil {
			return nil, fmt.Errorf("tools: capability %q has no handler", name)
		}
		if _, dup := r.caps[name]; dup {
			return nil, fmt.Errorf("tools: duplicate capability %q", name)
		}
		r.caps[name] = c
		r.order = append(r.order, name)
	}
	return r, nil
}

// Names returns capability names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Specs returns capability specs in registration order.
func (r *Registry) Specs() []core.CapabilitySpec {
	out := make([]core.CapabilitySpec, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.caps[n].Spec)
	}
	return out
}

// Definitions renders the specs in the function-calling wire format.
func (r *Registry) Definitions() []core.ToolDefinition {
	return core.Definitions(r.Specs())
}

// Lookup returns the named capability.
func (r *Registry) Lookup(name string) (Capability, bool) {
	c, ok := r.caps[name]
	return c, ok
}

// Subset returns a registry restricted to the given names, keeping the
// original registration order. Unknown names are an error.
func (r *Registry) Subset(names []string) (*Registry, error) {
	allow := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := r.caps[n]; !ok {
			return nil, fmt.Errorf("tools: unknown capability %q", n)
		}
		allow[n] = true
	}
	var caps []Capability
	for _, n := range r.order {
		if allow[n] {
			caps = append(caps, r.caps[n])
		}
	}
	return NewRegistry(r.logger, caps...)
}

// Result is the outcome of an invocation: either a value or an error message.
type Result struct {
	Value any
	Err   string
}

// IsError reports whether the invocation failed.
func (res Result) IsError() bool { return res.Err != "" }

// Payload returns the value, or {"error": msg} for failures.
func (res Result) Payload() any {
	if res.IsError() {
		return map[string]string{"error": res.Err}
	}
	return res.Value
}

// Content renders the result as message content: strings pass through,
// anything else is JSON-encoded.
func (res Result) Content() string {
	if s, ok := res.Payload().(string); ok {
		return s
	}
	b, err := json.Marshal(res.Payload())
	if err != nil {
		return ErrJSON(err)
	}
	return string(b)
}

// ErrJSON returns a JSON object {"error": "<message>"}.
func ErrJSON(err error) string {
	b, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(b)
}

// Invoke runs the named capability. It never returns a Go error: an unknown
// name, invalid arguments, a handler error or a handler panic all become an
// error Result.
func (r *Registry) Invoke(ctx context.Context, name string, arguments map[string]any) (res Result) {
	c, ok := r.caps[name]
	if !ok {
		return Result{Err: "Unknown tool: " + name}
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("capability panicked", zap.String("tool", name), zap.Any("panic", p))
			res = Result{Err: (&core.ToolExecutionError{Tool: name, Cause: fmt.Errorf("%v", p)}).Error()}
		}
	}()
	args, err := Bind(c.Spec, arguments)
	if err != nil {
		return Result{Err: (&core.ToolExecutionError{Tool: name, Cause: err}).Error()}
	}
	v, err := c.Handler(ctx, args)
	if err != nil {
		r.logger.Debug("capability failed", zap.String("tool", name), zap.Error(err))
		return Result{Err: (&core.ToolExecutionError{Tool: name, Cause: err}).Error()}
	}
	return Result{Value: v}
}

// InvokeJSON decodes argsJSON as an object and invokes name.
func (r *Registry) InvokeJSON(ctx context.Context, name, argsJSON string) Result {
	var args map[string]any
	if s := strings.TrimSpace(argsJSON); s != "" && s != "null" {
		if err := json.Unmarshal([]byte(s), &args); err != nil {
			if _, ok := r.caps[name]; !ok {
				return Result{Err: "Unknown tool: " + name}
			}
			return Result{Err: (&core.ToolExecutionError{Tool: name, Cause: fmt.Errorf("invalid arguments: %w", err)}).Error()}
		}
	}
	return r.Invoke(ctx, name, args)
}

// Args are validated keyword arguments.
type Args map[string]any

// String returns a string argument ("" when absent).
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns an integer argument (0 when absent).
func (a Args) Int(name string) int {
	n, _ := a[name].(int)
	return n
}

// Bind checks arguments against spec. It applies defaults, coerces numeric
// values to the declared type and rejects missing required or undeclared
// arguments.
func Bind(spec core.CapabilitySpec, arguments map[string]any) (Args, error) {
	out := make(Args, len(spec.Params))
	for k := range arguments {
		if _, ok := spec.Param(k); !ok {
			return nil, fmt.Errorf("unexpected argument %q", k)
		}
	}
	for _, p := range spec.Params {
		v, ok := arguments[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, fmt.Errorf("missing required argument %q", p.Name)
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}
		cv, err := coerce(p, v)
		if err != nil {
			return nil, err
		}
		out[p.Name] = cv
	}
	return out, nil
}

func coerce(p core.ParamSpec, v any) (any, error) {
	switch p.Type {
	case core.TypeString:
		switch t := v.(type) {
		case string:
			return t, nil
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64), nil
		case int:
			return strconv.Itoa(t), nil
		case bool:
			return strconv.FormatBool(t), nil
		}
	case core.TypeInteger:
		switch t := v.(type) {
		case int:
			return t, nil
		case int64:
			return int(t), nil
		case float64:
			if t == math.Trunc(t) {
				return int(t), nil
			}
		case json.Number:
			if n, err := t.Int64(); err == nil {
				return int(n), nil
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				return n, nil
			}
		}
	case core.TypeNumber:
		switch t := v.(type) {
		case float64:
			return t, nil
		case int:
			return float64(t), nil
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return f, nil
			}
		}
	case core.TypeBoolean:
		switch t := v.(type) {
		case bool:
			return t, nil
		case string:
			if b, err := strconv.ParseBool(t); err == nil {
				return b, nil
			}
		}
	default:
		return v, nil
	}
	return nil, fmt.Errorf("argument %q must be %s, got %T", p.Name, p.Type, v)
}
