package gemini

import (
	"context"
	"fmt"

	legacy "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"philalign/api/internal/llm"
)

func (e *Engine) sendLegacy(ctx context.Context, req llm.Request) (string, error) {
	opts := []option.ClientOption{option.WithAPIKey(e.APIKey)}
	if e.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(e.BaseURL))
	}
	cl, err := legacy.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("gemini: create client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(req.Model)
	m.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.System != "" {
		m.SystemInstruction = &legacy.Content{Parts: []legacy.Part{legacy.Text(req.System)}}
	}
	resp, err := m.GenerateContent(ctx, legacy.Text(req.Prompt))
	if err != nil {
		return "", err
	}
	return firstText(resp), nil
}

func firstText(resp *legacy.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(legacy.Text); ok && t != "" {
				return string(t)
			}
		}
	}
	return ""
}
