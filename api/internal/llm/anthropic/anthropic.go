package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"philalign/api/internal/apperr"
	"philalign/api/internal/llm"
)

type Engine struct {
	APIKey  string
	BaseURL string
}

func New(key, baseURL string) *Engine {
	return &Engine{
		APIKey:  strings.TrimSpace(key),
		BaseURL: strings.TrimSpace(baseURL),
	}
}

func (e *Engine) Provider() llm.Provider { return llm.Anthropic }

func (e *Engine) client() anthropic.Client {
	// retries are handled by llm.Call
	opts := []option.RequestOption{option.WithAPIKey(e.APIKey), option.WithMaxRetries(0)}
	if e.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(e.BaseURL))
	}
	return anthropic.NewClient(opts...)
}

func (e *Engine) Send(ctx context.Context, req llm.Request) (string, error) {
	if e.APIKey == "" {
		return "", &apperr.ConfigurationError{Provider: string(llm.Anthropic), Reason: "ANTHROPIC_API_KEY is empty"}
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	cl := e.client()
	msg, err := cl.Messages.New(ctx, params)
	if err != nil {
		return "", wrapError(req.Model, err)
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			if out := strings.TrimSpace(block.Text); out != "" {
				return out, nil
			}
		}
	}
	return "", llm.EmptyResponse(llm.Anthropic, req.Model)
}

func wrapError(model string, err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return llm.NewProviderError(llm.Anthropic, model, apiErr.StatusCode, err)
	}
	return llm.NewProviderError(llm.Anthropic, model, 0, err)
}
