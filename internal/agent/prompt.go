package agent

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

// GenomicsSystemPrompt is the default system prompt.
//
//go:embed prompts/genomics.md
var GenomicsSystemPrompt string

// LoadSystemPrompt reads a prompt override from path. An empty path returns
// the default.
func LoadSystemPrompt(path string) (string, error) {
	if path == "" {
		return GenomicsSystemPrompt, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", fmt.Errorf("system prompt %s is empty", path)
	}
	return s, nil
}
