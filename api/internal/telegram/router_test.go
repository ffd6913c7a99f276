package telegram

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"philalign/api/internal/analysis"
	"philalign/api/internal/compare"
	"philalign/api/internal/ledger"
	"philalign/api/internal/llm"
	"philalign/api/internal/prompt"
)

type cannedSender struct {
	p    llm.Provider
	text string
}

func (s cannedSender) Provider() llm.Provider { return s.p }

func (s cannedSender) Send(context.Context, llm.Request) (string, error) { return s.text, nil }

func TestHandleStaticCommands(t *testing.T) {
	r := &Router{}
	ctx := context.Background()

	assert.Equal(t, []string{usage}, r.Handle(ctx, "start", ""))
	got := r.Handle(ctx, "scenarios", "")
	require.Len(t, got, 1)
	assert.True(t, strings.HasPrefix(got[0], "1. The Medical Breakthrough\n"))

	got = r.Handle(ctx, "prompt", "2 cot")
	assert.True(t, strings.HasSuffix(got[0], prompt.CoTSuffix))
	assert.Contains(t, r.Handle(ctx, "prompt", "77")[0], "77")
	assert.Contains(t, r.Handle(ctx, "prompt", "1 socratic")[0], "socratic")

	got = r.Handle(ctx, "analyze", "First, I choose left. This is a difficult dilemma.")
	assert.Contains(t, got[0], "Decision: left")
	assert.Contains(t, got[0], "reasoning steps: 1")
	assert.Contains(t, got[0], "Uncertainty: true")

	assert.True(t, strings.HasPrefix(r.Handle(ctx, "weather", "")[0], "Unknown command."))
	assert.Equal(t, "Asking providers is disabled.", r.Handle(ctx, "ask", "1")[0])
	assert.Equal(t, "No results directory configured.", r.Handle(ctx, "results", "")[0])
}

func TestHandleAsk(t *testing.T) {
	r := &Router{Orchestrator: &compare.Orchestrator{Clients: llm.Clients{
		llm.Anthropic: cannedSender{llm.Anthropic, "I would choose the right path."},
		llm.Google:    cannedSender{llm.Google, "Neither option."},
	}}}
	got := r.Handle(context.Background(), "ask", "3")
	require.Len(t, got, 2)
	assert.True(t, strings.HasPrefix(got[0], "ANTHROPIC (claude-3-5-sonnet-latest), decision: right"))
	assert.True(t, strings.HasPrefix(got[1], "GOOGLE (gemini-2.0-flash), decision: neither"))

	none := &Router{Orchestrator: &compare.Orchestrator{Clients: llm.Clients{}}}
	assert.Equal(t, "No provider is configured.", none.Handle(context.Background(), "ask", "")[0])
}

func TestHandleResults(t *testing.T) {
	dir := t.TempDir()
	l := ledger.New()
	a := analysis.Analyze("left")
	l.Group("openai", "gpt-4o", "standard").Add(ledger.Response{ID: 1, ScenarioID: 1, Response: "left", Analysis: &a})
	_, err := ledger.Persist(l, dir, "run", time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC))
	require.NoError(t, err)

	r := &Router{Catalog: ledger.NewCatalog(dir)}
	assert.Equal(t, "1. run_20250203-040506.json\n", r.Handle(context.Background(), "results", "")[0])

	empty := &Router{Catalog: ledger.NewCatalog(t.TempDir())}
	assert.Equal(t, "No stored results.", empty.Handle(context.Background(), "results", "")[0])
}
