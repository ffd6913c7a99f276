package openai

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/sashabaranov/go-openai"

	"philalign/api/internal/apperr"
	"philalign/api/internal/llm"
)

type Engine struct {
	APIKey  string
	BaseURL string
}

// New returns an OpenAI sender. An empty baseURL uses the public API.
func New(key, baseURL string) *Engine {
	return &Engine{
		APIKey:  strings.TrimSpace(key),
		BaseURL: strings.TrimSpace(baseURL),
	}
}

func (e *Engine) Provider() llm.Provider { return llm.OpenAI }

func (e *Engine) client() *openai.Client {
	cfg := openai.DefaultConfig(e.APIKey)
	if e.BaseURL != "" {
		cfg.BaseURL = e.BaseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func (e *Engine) Send(ctx context.Context, req llm.Request) (string, error) {
	if e.APIKey == "" {
		return "", &apperr.ConfigurationError{Provider: string(llm.OpenAI), Reason: "OPENAI_API_KEY is empty"}
	}
	resp, err := e.client().CreateChatCompletion(ctx, buildRequest(req))
	if err != nil {
		return "", wrapError(req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.EmptyResponse(llm.OpenAI, req.Model)
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", llm.EmptyResponse(llm.OpenAI, req.Model)
	}
	return out, nil
}

// reasoning models reject system messages, max_tokens and custom temperatures.
func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func buildRequest(req llm.Request) openai.ChatCompletionRequest {
	out := openai.ChatCompletionRequest{Model: req.Model}
	if isReasoningModel(req.Model) {
		user := req.Prompt
		if req.System != "" {
			user = req.System + "\n\n" + user
		}
		out.Messages = []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: user}}
		out.MaxCompletionTokens = req.MaxTokens
		return out
	}
	if req.System != "" {
		out.Messages = append(out.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	out.Messages = append(out.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})
	out.MaxTokens = req.MaxTokens
	out.Temperature = float32(req.Temperature)
	if out.Temperature == 0 {
		// omitempty would drop 0 and leave the API default of 1
		out.Temperature = math.SmallestNonzeroFloat32
	}
	return out
}

func wrapError(model string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		pe := llm.NewProviderError(llm.OpenAI, model, apiErr.HTTPStatusCode, err)
		pe.Message = apiErr.Message
		return pe
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return llm.NewProviderError(llm.OpenAI, model, reqErr.HTTPStatusCode, err)
	}
	return llm.NewProviderError(llm.OpenAI, model, 0, err)
}
