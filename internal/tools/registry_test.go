package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/genomemcp/genomemcp/internal/core"
)

func echoRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(nil,
		Capability{
			Spec: core.CapabilitySpec{
				Name: "echo",
				Params: []core.ParamSpec{
					{Name: "text", Type: core.TypeString, Required: true},
					{Name: "times", Type: core.TypeInteger, Default: 1},
				},
			},
			Handler: func(_ context.Context, a Args) (any, error) {
				return map[string]any{"text": a.String("text"), "times": a.Int("times")}, nil
			},
		},
		Capability{
			Spec:    core.CapabilitySpec{Name: "fail"},
			Handler: func(context.Context, Args) (any, error) { return nil, errors.New("upstream down") },
		},
		Capability{
			Spec:    core.CapabilitySpec{Name: "panic"},
			Handler: func(context.Context, Args) (any, error) { panic("bad state") },
		},
		Capability{
			Spec:    core.CapabilitySpec{Name: "plain"},
			Handler: func(context.Context, Args) (any, error) { return "# report", nil },
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestInvoke_UnknownTool(t *testing.T) {
	r := echoRegistry(t)
	res := r.Invoke(context.Background(), "nope", nil)
	if !res.IsError() || res.Err != "Unknown tool: nope" {
		t.Fatalf("res = %+v", res)
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(res.Content()), &m); err != nil {
		t.Fatal(err)
	}
	if m["error"] != "Unknown tool: nope" {
		t.Errorf("content = %q", res.Content())
	}
}

func TestInvoke_HandlerErrorAndPanic(t *testing.T) {
	r := echoRegistry(t)
	if res := r.Invoke(context.Background(), "fail", nil); res.Err != "Error executing fail: upstream down" {
		t.Errorf("fail: %+v", res)
	}
	if res := r.Invoke(context.Background(), "panic", nil); res.Err != "Error executing panic: bad state" {
		t.Errorf("panic: %+v", res)
	}
}

func TestInvoke_DefaultsAndCoercion(t *testing.T) {
	r := echoRegistry(t)
	res := r.Invoke(context.Background(), "echo", map[string]any{"text": "hi"})
	if diff := cmp.Diff(map[string]any{"text": "hi", "times": 1}, res.Value); diff != "" {
		t.Errorf("defaults (-want +got):\n%s", diff)
	}
	res = r.InvokeJSON(context.Background(), "echo", `{"text":"hi","times":3}`)
	if diff := cmp.Diff(map[string]any{"text": "hi", "times": 3}, res.Value); diff != "" {
		t.Errorf("json float -> int (-want +got):\n%s", diff)
	}
	res = r.Invoke(context.Background(), "echo", map[string]any{"text": "hi", "times": "4"})
	if res.IsError() || res.Value.(map[string]any)["times"] != 4 {
		t.Errorf("string -> int: %+v", res)
	}
}

func TestInvoke_InvalidArguments(t *testing.T) {
	r := echoRegistry(t)
	cases := map[string]map[string]any{
		"missing required": {},
		"unexpected":       {"text": "x", "bogus": true},
		"wrong type":       {"text": "x", "times": 1.5},
	}
	for name, args := range cases {
		res := r.Invoke(context.Background(), "echo", args)
		if !res.IsError() {
			t.Errorf("%s: expected error, got %+v", name, res)
		}
	}
	if res := r.InvokeJSON(context.Background(), "echo", `{not json`); !res.IsError() {
		t.Error("bad json should error")
	}
}

func TestResult_Content(t *testing.T) {
	r := echoRegistry(t)
	if got := r.Invoke(context.Background(), "plain", nil).Content(); got != "# report" {
		t.Errorf("string content = %q", got)
	}
	got := r.Invoke(context.Background(), "echo", map[string]any{"text": "a"}).Content()
	if got != `{"text":"a","times":1}` {
		t.Errorf("json content = %q", got)
	}
}

func TestNewRegistry_Misconfigured(t *testing.T) {
	h := func(context.Context, Args) (any, error) { return nil, nil }
	if _, err := NewRegistry(nil, Capability{Spec: core.CapabilitySpec{Name: "a"}, Handler: h}, Capability{Spec: core.CapabilitySpec{Name: "a"}, Handler: h}); err == nil {
		t.Error("duplicate should fail")
	}
	if _, err := NewRegistry(nil, Capability{Spec: core.CapabilitySpec{Name: "a"}}); err == nil {
		t.Error("nil handler should fail")
	}
}

func TestSubset(t *testing.T) {
	r := echoRegistry(t)
	sub, err := r.Subset([]string{"plain", "echo"})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"echo", "plain"}, sub.Names()); diff != "" {
		t.Errorf("names (-want +got):\n%s", diff)
	}
	if res := sub.Invoke(context.Background(), "fail", nil); res.Err != "Unknown tool: fail" {
		t.Errorf("filtered tool reachable: %+v", res)
	}
	if _, err := r.Subset([]string{"missing"}); err == nil {
		t.Error("unknown name should fail")
	}
}

func TestDefinitions_Schema(t *testing.T) {
	r := echoRegistry(t)
	defs := r.Definitions()
	if len(defs) != 4 || defs[0].Function.Name != "echo" || defs[0].Type != "function" {
		t.Fatalf("defs = %+v", defs)
	}
	schema := defs[0].Function.Parameters.(map[string]any)
	if diff := cmp.Diff([]string{"text"}, schema["required"]); diff != "" {
		t.Errorf("required (-want +got):\n%s", diff)
	}
}
