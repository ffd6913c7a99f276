package ledger

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"philalign/api/internal/analysis"
	"philalign/api/internal/apperr"
)

func add(g *Group, id, scenarioID int, text string, err error) {
	r := Response{ID: id, ScenarioID: scenarioID, ScenarioName: "S", Prompt: "p", Response: text}
	if err != nil {
		r.Response, r.Error = Failure(err)
	} else {
		a := analysis.Analyze(text)
		r.Analysis = &a
	}
	g.Add(r)
}

func sample() *Ledger {
	l := New()
	g := l.Group("openai", "gpt-4o", "standard")
	add(g, 1, 1, "I would choose the left option.", nil)
	add(g, 2, 2, "", errors.New("boom"))
	add(l.Group("openai", "gpt-4o", "cot"), 1, 1, "First, go right.", nil)
	add(l.Group("anthropic", "claude-3-5-sonnet-latest", "standard"), 1, 1, "Neither.", nil)
	add(l.Group("google", "gemini-2.0-flash", "induced_cot"), 1, 2, "Left.", nil)
	return l
}

func keys(l *Ledger) []string {
	var out []string
	l.Walk(func(p, m, rt string, _ *Group) { out = append(out, p+"/"+m+"/"+rt) })
	return out
}

func TestGroupKeepsInsertionOrder(t *testing.T) {
	l := sample()
	assert.Equal(t, []string{"openai", "anthropic", "google"}, l.Providers())
	assert.Equal(t, []string{
		"openai/gpt-4o/standard",
		"openai/gpt-4o/cot",
		"anthropic/claude-3-5-sonnet-latest/standard",
		"google/gemini-2.0-flash/induced_cot",
	}, keys(l))
	assert.Equal(t, 5, l.Len())

	g, ok := l.Lookup("openai", "gpt-4o", "standard")
	require.True(t, ok)
	assert.Equal(t, 1, g.Summary.Succeeded)
	assert.Equal(t, 1, g.Summary.Errored)
	_, ok = l.Lookup("openai", "gpt-4o", "induced_cot")
	assert.False(t, ok)
}

func TestFailure(t *testing.T) {
	text, msg := Failure(errors.New("rate limited"))
	assert.Equal(t, "[ERROR] rate limited", text)
	require.NotNil(t, msg)
	assert.Equal(t, "rate limited", *msg)
	assert.True(t, Response{Response: text, Error: msg}.Failed())
	assert.True(t, Response{Response: "[ERROR] legacy"}.Failed())
}

func TestJSONKeyOrder(t *testing.T) {
	l := New()
	for _, p := range []string{"zeta", "alpha", "mid"} {
		l.Group(p, "m", "standard")
	}
	b, err := json.Marshal(l)
	require.NoError(t, err)
	s := string(b)
	assert.Less(t, strings.Index(s, `"zeta"`), strings.Index(s, `"alpha"`))
	assert.Less(t, strings.Index(s, `"alpha"`), strings.Index(s, `"mid"`))
	assert.Contains(t, s, `"scenarios":[]`)
}

func TestPersistLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := sample()
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := Persist(l, dir, "multi_provider_comparison", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "multi_provider_comparison_20250304-050607.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "{\n  \"openai\": {\n    \"gpt-4o\": {"))

	back, err := Load(path)
	require.NoError(t, err)
	opts := cmp.AllowUnexported(Ledger{}, providerNode{}, modelNode{}, groupNode{})
	if diff := cmp.Diff(l, back, opts); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPersistNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	first, err := Persist(New(), dir, "run", now)
	require.NoError(t, err)
	second, err := Persist(sample(), dir, "run", now)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasSuffix(second, "run_20250101-000000-1.json"))

	b, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "nope.json"))
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`["not","an","object"]`), 0o644))
	_, err = Load(bad)
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestSummarizeRows(t *testing.T) {
	rows := Summarize(sample())
	require.Len(t, rows, 5)
	assert.Equal(t, "openai", rows[0].Provider)
	assert.Equal(t, analysis.Left, rows[0].Decision)
	assert.True(t, rows[1].Errored)
	assert.Equal(t, "boom", rows[1].Error)
	assert.Zero(t, rows[1].WordCount)

	obs := Observations(sample())
	assert.Len(t, obs, 4)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Summarize(sample())))
	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 6)
	assert.Equal(t, header, recs[0])
	assert.Equal(t, "true", recs[2][7])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.xlsx")
	require.NoError(t, WriteXLSX(path, Summarize(sample())))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "provider", rows[0][0])
	assert.Equal(t, "gemini-2.0-flash", rows[5][1])
}

func TestRemoveScenario(t *testing.T) {
	l := sample()
	assert.Equal(t, 3, l.RemoveScenario(1))
	g, _ := l.Lookup("openai", "gpt-4o", "standard")
	require.Len(t, g.Scenarios, 1)
	assert.Equal(t, 0, g.Summary.Succeeded)
	assert.Equal(t, 1, g.Summary.Errored)
}

func TestMerge(t *testing.T) {
	a := New()
	add(a.Group("openai", "gpt-4o", "standard"), 1, 1, "left", nil)
	b := New()
	add(b.Group("google", "gemini-2.0-flash", "standard"), 1, 1, "right", nil)
	add(b.Group("openai", "gpt-4o", "standard"), 2, 2, "right", nil)

	a.Merge(b)
	assert.Equal(t, []string{"openai", "google"}, a.Providers())
	g, _ := a.Lookup("openai", "gpt-4o", "standard")
	assert.Len(t, g.Scenarios, 2)
	assert.Equal(t, 2, g.Summary.Succeeded)
}
