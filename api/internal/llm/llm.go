// Package llm defines the provider-neutral side of model calls: the model
// registry, the Sender contract, error classification and bounded retry.
package llm

import (
	"context"
	"strings"

	"philalign/api/internal/apperr"
)

type Provider string

const (
	OpenAI    Provider = "openai"
	Anthropic Provider = "anthropic"
	Google    Provider = "google"
)

// Providers lists the providers in run order.
func Providers() []Provider { return []Provider{OpenAI, Anthropic, Google} }

func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case OpenAI, Anthropic, Google:
		return p, nil
	case "gemini":
		return Google, nil
	}
	return "", apperr.InvalidArgument("unknown provider %q", s)
}

// KeyEnv names the environment variable holding the provider's API key.
func (p Provider) KeyEnv() string {
	switch p {
	case OpenAI:
		return "OPENAI_API_KEY"
	case Anthropic:
		return "ANTHROPIC_API_KEY"
	case Google:
		return "GEMINI_API_KEY"
	}
	return ""
}

type ModelInfo struct {
	ID          string   `json:"id"`
	Provider    Provider `json:"provider"`
	Description string   `json:"description"`
}

var registry = []ModelInfo{
	{ID: "gpt-3.5-turbo", Provider: OpenAI, Description: "GPT-3.5 Turbo (latest version)"},
	{ID: "gpt-4o", Provider: OpenAI, Description: "GPT-4o (latest omni model)"},
	{ID: "o1-mini", Provider: OpenAI, Description: "o1-mini (reasoning-optimized model)"},

	{ID: "claude-3-5-sonnet-latest", Provider: Anthropic, Description: "Claude 3.5 Sonnet (latest version)"},
	{ID: "claude-3-5-haiku-latest", Provider: Anthropic, Description: "Claude 3.5 Haiku (fastest model)"},
	{ID: "claude-3-7-sonnet-latest", Provider: Anthropic, Description: "Claude 3.7 Sonnet (extended thinking)"},

	{ID: "gemini-2.0-flash", Provider: Google, Description: "Gemini 2.0 Flash (balanced model)"},
	{ID: "gemini-2.0-flash-lite", Provider: Google, Description: "Gemini 2.0 Flash-Lite (faster model)"},
	{ID: "gemini-2.0-pro", Provider: Google, Description: "Gemini 2.0 Pro (most powerful model)"},
}

// Models returns the registry in declaration order.
func Models() []ModelInfo {
	out := make([]ModelInfo, len(registry))
	copy(out, registry)
	return out
}

func Lookup(id string) (ModelInfo, error) {
	for _, m := range registry {
		if m.ID == id {
			return m, nil
		}
	}
	return ModelInfo{}, apperr.NotFound("unknown model %q", id)
}

// DefaultModel is the model used for a provider when none is requested.
func DefaultModel(p Provider) string {
	switch p {
	case OpenAI:
		return "gpt-4o"
	case Anthropic:
		return "claude-3-5-sonnet-latest"
	case Google:
		return "gemini-2.0-flash"
	}
	return ""
}

// Request is one single-turn completion. System may be empty.
type Request struct {
	Model       string
	Prompt      string
	System      string
	MaxTokens   int
	Temperature float64
}

// Sender sends a prompt to one provider and returns the raw response text.
// Implementations return *ProviderError for remote failures.
type Sender interface {
	Provider() Provider
	Send(ctx context.Context, req Request) (string, error)
}

// Clients holds one Sender per configured provider.
type Clients map[Provider]Sender

func (c Clients) Get(p Provider) (Sender, bool) {
	s, ok := c[p]
	return s, ok && s != nil
}
