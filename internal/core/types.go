package core

import "encoding/json"

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a chat message (OpenAI wire shape).
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// FunctionCall is the function part of a ToolCall. Arguments is a JSON-encoded object.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is a single tool invocation request as carried in assistant history.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// ToolInvocation is a decoded tool request produced by the model. ID must be
// echoed back on the matching tool-role message.
type ToolInvocation struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolCall converts the invocation into its history form.
func (inv ToolInvocation) ToolCall() ToolCall {
	args := inv.Arguments
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		raw = []byte("{}")
	}
	return ToolCall{
		ID:       inv.ID,
		Type:     "function",
		Function: FunctionCall{Name: inv.Name, Arguments: string(raw)},
	}
}

// ChatResponse is what every ModelClient backend returns. FinishReason is
// informational; callers branch on len(ToolInvocations) only.
type ChatResponse struct {
	Content         string
	ToolInvocations []ToolInvocation
	FinishReason    string
}

// HasToolCalls reports whether the model requested any tool invocation.
func (r ChatResponse) HasToolCalls() bool {
	return len(r.ToolInvocations) > 0
}

// ToolDefinition describes a tool available to the model.
type ToolDefinition struct {
	Type     string       `json:"type"`
	Function FunctionSpec `json:"function"`
}

// FunctionSpec describes the function signature.
type FunctionSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters,omitempty"` // JSON Schema
}

// Parameter types accepted in a CapabilitySpec.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// ParamSpec declares one keyword argument of a capability.
type ParamSpec struct {
	Name        string
	Type        string
	Description string
	Required    bool
	Default     any
}

// CapabilitySpec is the immutable description of a callable tool. Params keeps
// declaration order so the emitted schema is stable.
type CapabilitySpec struct {
	Name        string
	Description string
	Params      []ParamSpec
}

// Param returns the named parameter spec.
func (c CapabilitySpec) Param(name string) (ParamSpec, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p, true
		}
	}
	return ParamSpec{}, false
}

// Schema renders the parameter list as a JSON Schema object.
func (c CapabilitySpec) Schema() map[string]any {
	props := make(map[string]any, len(c.Params))
	required := []string{}
	for _, p := range c.Params {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

// Definition converts the spec into the function-calling wire format.
func (c CapabilitySpec) Definition() ToolDefinition {
	return ToolDefinition{
		Type: "function",
		Function: FunctionSpec{
			Name:        c.Name,
			Description: c.Description,
			Parameters:  c.Schema(),
		},
	}
}

// Definitions converts a capability list, preserving order.
func Definitions(specs []CapabilitySpec) []ToolDefinition {
	out := make([]ToolDefinition, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.Definition())
	}
	return out
}
