package gemini

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"philalign/api/internal/apperr"
	"philalign/api/internal/llm"
)

// Backend selects the Go SDK used to reach the Gemini API.
type Backend string

const (
	BackendGenAI  Backend = "genai"
	BackendLegacy Backend = "generativeai"
)

func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "", BackendGenAI:
		return BackendGenAI, nil
	case BackendLegacy:
		return b, nil
	}
	return "", apperr.InvalidArgument("unknown google backend %q", s)
}

type Engine struct {
	APIKey  string
	Backend Backend
	BaseURL string
}

func New(key string, backend Backend, baseURL string) *Engine {
	if backend == "" {
		backend = BackendGenAI
	}
	return &Engine{
		APIKey:  strings.TrimSpace(key),
		Backend: backend,
		BaseURL: strings.TrimSpace(baseURL),
	}
}

func (e *Engine) Provider() llm.Provider { return llm.Google }

func (e *Engine) Send(ctx context.Context, req llm.Request) (string, error) {
	if e.APIKey == "" {
		return "", &apperr.ConfigurationError{Provider: string(llm.Google), Reason: "GEMINI_API_KEY is empty"}
	}
	var (
		out string
		err error
	)
	if e.Backend == BackendLegacy {
		out, err = e.sendLegacy(ctx, req)
	} else {
		out, err = e.sendGenAI(ctx, req)
	}
	if err != nil {
		return "", wrapError(req.Model, err)
	}
	if out = strings.TrimSpace(out); out == "" {
		return "", llm.EmptyResponse(llm.Google, req.Model)
	}
	return out, nil
}

func wrapError(model string, err error) error {
	var pe *llm.ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return llm.NewProviderError(llm.Google, model, apiErr.Code, err)
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return llm.NewProviderError(llm.Google, model, gErr.Code, err)
	}
	return llm.NewProviderError(llm.Google, model, 0, err)
}
