// Package tui is the line-oriented console for interactive chat.
package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/genomemcp/genomemcp/internal/agent"
)

// Options configure RunChat.
type Options struct {
	// Prompt is printed before each line is read; empty when stdin is not a terminal.
	Prompt string
	// OnAnswer is called after every successful exchange.
	OnAnswer func(query, answer string)
}

// RunChat reads one query per line from in until EOF or "exit". The
// commands "clear" and "history" act on the session. A failed query is
// printed and the session continues.
func RunChat(ctx context.Context, s *agent.ChatSession, in io.Reader, out io.Writer, o Options) error {
	scan := bufio.NewScanner(in)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, o.Prompt)
		if !scan.Scan() {
			return scan.Err()
		}
		line := strings.TrimSpace(scan.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "clear":
			s.Clear()
			fmt.Fprintln(out, "History cleared.")
			continue
		case "history":
			for i, ex := range s.History() {
				fmt.Fprintf(out, "%d. %s\n", i+1, ex.Query)
			}
			continue
		}

		answer, err := s.Chat(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		fmt.Fprintln(out, answer)
		if o.OnAnswer != nil {
			o.OnAnswer(line, answer)
		}
	}
}
