package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"philalign/api/internal/apperr"
	"philalign/api/internal/llm"
)

type chatBody struct {
	Model               string  `json:"model"`
	MaxTokens           int     `json:"max_tokens"`
	MaxCompletionTokens int     `json:"max_completion_tokens"`
	Temperature         float64 `json:"temperature"`
	Messages            []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeServer(t *testing.T, status int, reply string, seen *chatBody) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okReply = `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o",
"choices":[{"index":0,"message":{"role":"assistant","content":"  I would choose left.  "},"finish_reason":"stop"}]}`

func TestSend(t *testing.T) {
	var seen chatBody
	srv := fakeServer(t, http.StatusOK, okReply, &seen)
	e := New("sk-test", srv.URL+"/v1")

	out, err := e.Send(context.Background(), llm.Request{
		Model: "gpt-4o", Prompt: "Left or right?", System: "Be helpful.", MaxTokens: 500, Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "I would choose left.", out)

	assert.Equal(t, "gpt-4o", seen.Model)
	assert.Equal(t, 500, seen.MaxTokens)
	assert.InDelta(t, 0.7, seen.Temperature, 1e-6)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "Left or right?", seen.Messages[1].Content)
}

func TestSendReasoningModel(t *testing.T) {
	var seen chatBody
	srv := fakeServer(t, http.StatusOK, okReply, &seen)
	e := New("sk-test", srv.URL+"/v1")

	_, err := e.Send(context.Background(), llm.Request{
		Model: "o1-mini", Prompt: "Left or right?", System: "Be helpful.", MaxTokens: 500, Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Zero(t, seen.MaxTokens)
	assert.Equal(t, 500, seen.MaxCompletionTokens)
	assert.Zero(t, seen.Temperature)
	require.Len(t, seen.Messages, 1)
	assert.Equal(t, "user", seen.Messages[0].Role)
	assert.Equal(t, "Be helpful.\n\nLeft or right?", seen.Messages[0].Content)
}

func TestSendMapsAPIError(t *testing.T) {
	srv := fakeServer(t, http.StatusTooManyRequests,
		`{"error":{"message":"slow down","type":"requests","code":"rate_limit_exceeded"}}`, nil)
	e := New("sk-test", srv.URL+"/v1")

	_, err := e.Send(context.Background(), llm.Request{Model: "gpt-4o", Prompt: "x", MaxTokens: 10})
	var pe *llm.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusTooManyRequests, pe.Status)
	assert.Equal(t, llm.ReasonRateLimit, pe.Reason)
	assert.Equal(t, "slow down", pe.Message)
}

func TestSendEmptyChoices(t *testing.T) {
	srv := fakeServer(t, http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`, nil)
	_, err := New("sk-test", srv.URL+"/v1").Send(context.Background(), llm.Request{Model: "gpt-4o", Prompt: "x"})
	var pe *llm.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, llm.ReasonEmptyResponse, pe.Reason)
}

func TestSendWithoutKey(t *testing.T) {
	_, err := New("", "").Send(context.Background(), llm.Request{Model: "gpt-4o", Prompt: "x"})
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))
}

func TestBuildRequestKeepsZeroTemperature(t *testing.T) {
	b, err := json.Marshal(buildRequest(llm.Request{Model: "gpt-4o", Prompt: "Left or right?", MaxTokens: 10}))
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	require.Contains(t, m, "temperature")
	assert.InDelta(t, 0, m["temperature"], 1e-6)

	b, err = json.Marshal(buildRequest(llm.Request{Model: "o1-mini", Prompt: "Left or right?"}))
	require.NoError(t, err)
	assert.NotContains(t, string(b), "temperature")
}
