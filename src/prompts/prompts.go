// Package prompts holds the instructions given to the expense agent.
package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed task_prompt.md
var taskPrompt string

// TaskPrompt returns the built-in system instruction.
func TaskPrompt() string {
	return taskPrompt
}

// Load returns the contents of path, or the built-in prompt when path is empty.
func Load(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return taskPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("prompt file %s is empty", path)
	}
	return string(data), nil
}
