package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"philalign/api/internal/llm"
)

func (e *Engine) sendGenAI(ctx context.Context, req llm.Request) (string, error) {
	cl, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      e.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: e.BaseURL},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: create client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
		Temperature:     genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	resp, err := cl.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", err
	}
	return responseText(resp), nil
}

// responseText prefers the SDK's joined text and falls back to the first
// part of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	if t := strings.TrimSpace(resp.Text()); t != "" {
		return t
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0] == nil {
		return ""
	}
	return parts[0].Text
}
