package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/genomemcp/genomemcp/internal/agent"
	"github.com/genomemcp/genomemcp/internal/tui"
)

var askFlags struct {
	tools string
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question with the model calling genomics tools",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		l, err := a.loop(cmd, splitList(askFlags.tools))
		if err != nil {
			return err
		}
		query := strings.Join(args, " ")
		answer, err := l.Run(cmd.Context(), query)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		a.record(cmd.Context(), "ask", map[string]string{"answer": answer}, query)
		return nil
	}),
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session; type 'clear' to reset history, 'exit' to quit",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		l, err := a.loop(cmd, splitList(askFlags.tools))
		if err != nil {
			return err
		}
		prompt := ""
		if stdinIsTerminal() {
			prompt = "> "
			fmt.Fprintf(cmd.OutOrStdout(), "genomemcp chat (%s). Type 'exit' to quit.\n", l.Model.Name())
		}
		return tui.RunChat(cmd.Context(), agent.NewChatSession(l), cmd.InOrStdin(), cmd.OutOrStdout(), tui.Options{
			Prompt: prompt,
			OnAnswer: func(q, answer string) {
				a.record(cmd.Context(), "chat", map[string]string{"answer": answer}, q)
			},
		})
	}),
}

func init() {
	for _, c := range []*cobra.Command{askCmd, chatCmd} {
		c.Flags().StringVar(&askFlags.tools, "tools", "", "Comma-separated capability names to offer the model (default all)")
	}
}
