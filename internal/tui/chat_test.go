package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/genomemcp/genomemcp/internal/agent"
)

type runnerFunc func(ctx context.Context, q string) (string, error)

func (f runnerFunc) Run(ctx context.Context, q string) (string, error) { return f(ctx, q) }

func TestRunChat(t *testing.T) {
	s := agent.NewChatSession(runnerFunc(func(_ context.Context, q string) (string, error) {
		if q == "fail" {
			return "", errors.New("model down")
		}
		return "re: " + q, nil
	}))
	in := strings.NewReader("BRCA1?\n\nfail\nhistory\nclear\nTP53?\nexit\nnever\n")
	var out bytes.Buffer
	var answered []string
	err := RunChat(context.Background(), s, in, &out, Options{
		OnAnswer: func(q, _ string) { answered = append(answered, q) },
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "re: BRCA1?\nerror: model down\n1. BRCA1?\nHistory cleared.\nre: TP53?\n"
	if out.String() != want {
		t.Errorf("out = %q, want %q", out.String(), want)
	}
	if diff := cmp.Diff([]string{"BRCA1?", "TP53?"}, answered); diff != "" {
		t.Errorf("answered (-want +got):\n%s", diff)
	}
	if h := s.History(); len(h) != 1 || h[0].Query != "TP53?" {
		t.Errorf("history = %+v", h)
	}
}

func TestRunChat_PromptAndEOF(t *testing.T) {
	s := agent.NewChatSession(runnerFunc(func(_ context.Context, q string) (string, error) { return "ok", nil }))
	var out bytes.Buffer
	if err := RunChat(context.Background(), s, strings.NewReader("hi\n"), &out, Options{Prompt: "> "}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "> ok\n> " {
		t.Errorf("out = %q", out.String())
	}
}

func TestRunChat_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := agent.NewChatSession(runnerFunc(func(ctx context.Context, q string) (string, error) {
		cancel()
		return "", ctx.Err()
	}))
	var out bytes.Buffer
	err := RunChat(ctx, s, strings.NewReader("a\nb\n"), &out, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}
