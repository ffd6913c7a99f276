package prompt

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultSystem is the system message used when no override exists.
const DefaultSystem = "You are a helpful AI assistant tasked with reasoning through moral dilemmas."

// SystemPrompt returns the system message for provider: the override from
// SystemOverride when there is one, DefaultSystem otherwise.
func SystemPrompt(dir, provider string) string {
	if s := SystemOverride(dir, provider); s != "" {
		return s
	}
	return DefaultSystem
}

// SystemOverride reads a non-empty <dir>/<provider>/system.txt. dir falls
// back to $PROMPT_DIR; with neither set there are no overrides.
func SystemOverride(dir, provider string) string {
	if dir == "" {
		dir = os.Getenv("PROMPT_DIR")
	}
	if dir == "" || provider == "" {
		return ""
	}
	b, err := os.ReadFile(filepath.Join(dir, strings.ToLower(provider), "system.txt"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
