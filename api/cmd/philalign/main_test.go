package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"philalign/api/internal/analysis"
	"philalign/api/internal/apperr"
	"philalign/api/internal/config"
	"philalign/api/internal/ledger"
	"philalign/api/internal/llm"
	"philalign/api/internal/scenario"
)

func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "PROMPT_DIR", "RESULTS_PREFIX"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Setenv("RESULTS_DIR", dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{log: zap.NewNop()}
	root := newRootCmd(a)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--env-file", ""}, args...))
	err := root.Execute()
	return out.String(), err
}

func seed(t *testing.T, dir string) {
	t.Helper()
	for i, text := range []string{"I would choose the left option.", "First, I choose right. This is a difficult dilemma."} {
		l := ledger.New()
		g := l.Group("openai", "gpt-4o", "cot")
		a := analysis.Analyze(text)
		g.Add(ledger.Response{ID: 1, ScenarioID: 1, ScenarioName: "The Medical Breakthrough", Prompt: "p", Response: text, Analysis: &a})
		resp, msg := ledger.Failure(errors.New("rate limited"))
		g.Add(ledger.Response{ID: 2, ScenarioID: 2, ScenarioName: "The False Confession", Prompt: "p", Response: resp, Error: msg})
		ts := time.Date(2025, 1, 1, i, 0, 0, 0, time.UTC)
		p, err := ledger.Persist(l, dir, "multi_provider_comparison", ts)
		require.NoError(t, err)
		require.NoError(t, os.Chtimes(p, ts, ts))
	}
}

func TestScenariosCommand(t *testing.T) {
	isolate(t)
	out, err := execute(t, "scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "  1. The Medical Breakthrough")
	assert.Contains(t, out, "  6. The AI Surveillance Dilemma")
}

func TestModelsCommand(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "test-key")
	out, err := execute(t, "models")
	require.NoError(t, err)
	assert.Contains(t, out, "openai (OPENAI_API_KEY not set)")
	assert.Contains(t, out, "google (configured)")
	assert.Contains(t, out, "o1-mini")
}

func TestRunWithoutProviders(t *testing.T) {
	isolate(t)
	_, err := execute(t, "run", "--scenarios", "1")
	assert.True(t, errors.Is(err, apperr.ErrConfiguration))

	_, err = execute(t, "run", "--reasoning-types", "socratic")
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestListViewAndClear(t *testing.T) {
	dir := isolate(t)
	seed(t, dir)

	out, err := execute(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "  1. multi_provider_comparison_20250101-010000.json")
	assert.Contains(t, out, "  2. multi_provider_comparison_20250101-000000.json")

	out, err = execute(t, "view", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "openai / gpt-4o / cot: 1 ok, 1 errored")
	assert.Contains(t, out, "#1 The Medical Breakthrough [left]")
	assert.Contains(t, out, "#2 The False Confession [-]")

	_, err = execute(t, "view", "9")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	out, err = execute(t, "clear", "scenario", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 responses for scenario 2")

	out, err = execute(t, "backup", filepath.Join(dir, "bk"))
	require.NoError(t, err)
	assert.Contains(t, out, "Backed up 2 results")

	out, err = execute(t, "clear", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed multi_provider_comparison_20250101-010000.json")

	out, err = execute(t, "clear", "all")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 stored results")

	_, err = execute(t, "clear", "scenario", "x")
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestSummarizeAndReport(t *testing.T) {
	dir := isolate(t)
	seed(t, dir)

	out, err := execute(t, "summarize")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "provider,model,reasoning_type"))

	rep := filepath.Join(dir, "rep")
	out, err = execute(t, "report", "--out", rep)
	require.NoError(t, err)
	assert.Contains(t, out, "Analyzed 2 responses")
	for _, name := range []string{"ethical_alignment_stats.json", "summary_statistics.json", "philalignment_results.xlsx", "philalignment_results.csv"} {
		_, err := os.Stat(filepath.Join(rep, name))
		assert.NoError(t, err, name)
	}
	b, err := os.ReadFile(filepath.Join(rep, "philalignment_results.csv"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(b)), "\n"), 3)
}

type fixedSender struct {
	p    llm.Provider
	text string
	err  error
}

func (s fixedSender) Provider() llm.Provider { return s.p }

func (s fixedSender) Send(context.Context, llm.Request) (string, error) { return s.text, s.err }

func TestConnectivity(t *testing.T) {
	var out bytes.Buffer
	a := &app{cfg: config.Defaults(), log: zap.NewNop(), out: &out}
	n := a.connectivity(context.Background(), llm.Clients{
		llm.OpenAI: fixedSender{p: llm.OpenAI, text: "AI is the study of machines that think."},
		llm.Google: fixedSender{p: llm.Google, err: llm.NewProviderError(llm.Google, "gemini-2.0-flash", 403, errors.New("forbidden"))},
	})
	assert.Equal(t, 1, n)
	s := out.String()
	assert.Contains(t, s, "✅ openai (gpt-4o) is working. Response: 8 words")
	assert.Contains(t, s, "❌ anthropic: ANTHROPIC_API_KEY not set")
	assert.Contains(t, s, "❌ google (gemini-2.0-flash)")
}

func TestRunSkipsRequestedProviderWithoutKey(t *testing.T) {
	dir := isolate(t)
	var temps []any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		temps = append(temps, body["temperature"])
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o",` +
			`"choices":[{"index":0,"message":{"role":"assistant","content":"I would choose left."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", srv.URL+"/v1")
	t.Setenv("CALL_DELAY", "0s")
	t.Setenv("TEMPERATURE", "0")

	out, err := execute(t, "run", "--providers", "openai,anthropic", "--scenarios", "1", "-r", "standard")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped claude-3-5-sonnet-latest: provider anthropic not configured: ANTHROPIC_API_KEY not set")
	assert.Contains(t, out, "gpt-4o")
	require.Len(t, temps, 1)
	assert.NotNil(t, temps[0], "temperature 0 must be sent")

	all, err := ledger.NewCatalog(dir).List()
	require.NoError(t, err)
	require.Len(t, all, 1)
	l, err := ledger.Load(all[0].Path)
	require.NoError(t, err)
	assert.Equal(t, []string{"openai"}, l.Providers())

	_, err = execute(t, "run", "--providers", "mistral")
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
	_, err = execute(t, "run", "--providers", "openai", "--models", "gemini-2.0-pro")
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestSelectScenariosSeedZero(t *testing.T) {
	a := &app{}
	got, err := a.selectScenarios(runFlags{samples: 1, seed: 0, seeded: true})
	require.NoError(t, err)
	assert.Equal(t, scenario.Default().Sample(1, nil, rand.New(rand.NewSource(0))), got)

	got, err = a.selectScenarios(runFlags{samples: 1})
	require.NoError(t, err)
	assert.Equal(t, scenario.Default().Sample(1, nil, nil), got)
}
