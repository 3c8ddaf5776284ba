// genomemcp is a genomics research assistant: single-shot ClinVar, gene,
// literature, population and pathway lookups, an agentic question-answering
// loop over the same capabilities, and MCP and HTTP servers exposing them.
//
// Usage:
//
//	genomemcp search "Lynch syndrome"
//	genomemcp variant 17661
//	genomemcp ask "Which genes are linked to Marfan syndrome?" --verbose
//	genomemcp chat
//	genomemcp serve
//	genomemcp http --addr :8080
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configDir string
	backend   string
	model     string
	baseURL   string
	userID    string
	logLevel  string
	verbose   bool
	noColor   bool
}

var rootCmd = &cobra.Command{
	Use:   "genomemcp",
	Short: "Genomics research assistant over ClinVar, NCBI Gene, PubMed, gnomAD and Reactome",
	Long: "genomemcp looks up variants, genes, literature, population frequencies and pathways,\n" +
		"and answers free-form questions by letting a language model call those lookups as tools.",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.configDir, "config-dir", "", "Config directory (default $GENOMEMCP_CONFIG_DIR, ./.genomemcp or ~/.config/genomemcp)")
	f.StringVar(&rootFlags.backend, "backend", "", "Model backend: ollama, llamacpp, openrouter or openai")
	f.StringVar(&rootFlags.model, "model", "", "Model name")
	f.StringVar(&rootFlags.baseURL, "base-url", "", "Model endpoint base URL")
	f.StringVar(&rootFlags.userID, "user", "", "User id for history and favorites")
	f.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	f.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Print each tool call and a preview of its result")
	f.BoolVar(&rootFlags.noColor, "no-color", false, "Disable colored verbose output")

	for _, c := range lookupCommands() {
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(httpCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(favoriteCmd)
	rootCmd.AddCommand(researchCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
