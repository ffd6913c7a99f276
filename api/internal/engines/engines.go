// Package engines builds the provider senders from configuration.
package engines

import (
	"go.uber.org/zap"

	"philalign/api/internal/apperr"
	"philalign/api/internal/config"
	"philalign/api/internal/llm"
	"philalign/api/internal/llm/anthropic"
	"philalign/api/internal/llm/gemini"
	"philalign/api/internal/llm/openai"
)

// New returns a sender for every provider that has a key and one
// *apperr.ConfigurationError for every provider that does not. A missing key
// is never fatal here.
func New(cfg *config.Config, log *zap.Logger) (llm.Clients, []error) {
	if log == nil {
		log = zap.NewNop()
	}
	clients := llm.Clients{}
	var missing []error

	add := func(p llm.Provider, key string, build func() llm.Sender) {
		if key == "" {
			err := &apperr.ConfigurationError{Provider: string(p), Reason: p.KeyEnv() + " not set"}
			log.Warn("provider disabled", zap.String("provider", string(p)), zap.Error(err))
			missing = append(missing, err)
			return
		}
		clients[p] = build()
		log.Debug("provider enabled", zap.String("provider", string(p)))
	}

	add(llm.OpenAI, cfg.OpenAIAPIKey, func() llm.Sender {
		return openai.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	})
	add(llm.Anthropic, cfg.AnthropicAPIKey, func() llm.Sender {
		return anthropic.New(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL)
	})

	backend, err := gemini.ParseBackend(cfg.GoogleBackend)
	if err != nil {
		log.Warn("unknown google backend, using genai", zap.String("backend", cfg.GoogleBackend))
		backend = gemini.BackendGenAI
	}
	add(llm.Google, cfg.GeminiAPIKey, func() llm.Sender {
		return gemini.New(cfg.GeminiAPIKey, backend, cfg.GeminiBaseURL)
	})

	return clients, missing
}
