package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"philalign/api/internal/analysis"
	"philalign/api/internal/ledger"
)

func mockRepo(t *testing.T) (*RowRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRowRepo(db), mock
}

var rows = []ledger.Row{
	{Provider: "openai", Model: "gpt-4o", ReasoningType: "cot", ID: 1, ScenarioID: 1, ScenarioName: "The Medical Breakthrough",
		WordCount: 18, CharCount: 104, ReasoningSteps: 1, ContainsUncertainty: true, DecisionMade: true,
		Decision: analysis.Left, EthicalFramework: analysis.Other},
	{Provider: "openai", Model: "gpt-4o", ReasoningType: "cot", ID: 2, ScenarioID: 2, ScenarioName: "The False Confession",
		Errored: true, Error: "rate limited"},
}

func TestSaveRunOneInsertPerRow(t *testing.T) {
	repo, mock := mockRepo(t)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("insert into ledger_rows"))
	prep.ExpectExec().
		WithArgs("run-1", "openai", "gpt-4o", "cot", 1, 1, "The Medical Breakthrough", "", false, "",
			18, 104, 1, 0, true, true, "left", "other").
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().
		WithArgs("run-1", "openai", "gpt-4o", "cot", 2, 2, "The False Confession", "", true, "rate limited",
			0, 0, 0, 0, false, false, "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveRun(context.Background(), "run-1", rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunRollsBackOnFailure(t *testing.T) {
	repo, mock := mockRepo(t)
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("insert into ledger_rows"))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.SaveRun(context.Background(), "run-1", rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "openai/gpt-4o/cot #2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindRun(t *testing.T) {
	repo, mock := mockRepo(t)
	cols := []string{"provider", "model", "reasoning_type", "position", "scenario_id", "scenario_name", "category",
		"errored", "error", "word_count", "char_count", "reasoning_steps", "principles_count",
		"contains_uncertainty", "decision_made", "decision", "ethical_framework"}
	mock.ExpectQuery(regexp.QuoteMeta("from ledger_rows")).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("openai", "gpt-4o", "cot", 1, 1, "The Medical Breakthrough", "", false, "", 18, 104, 1, 2, true, true, "left", "utilitarian"))

	got, err := repo.FindRun(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, analysis.Left, got[0].Decision)
	assert.Equal(t, analysis.Utilitarian, got[0].EthicalFramework)
	assert.True(t, got[0].ContainsEthicalPrinciples)
	assert.Equal(t, 2, got[0].EthicalPrinciplesCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecisionCounts(t *testing.T) {
	repo, mock := mockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("group by model, decision")).
		WithArgs("run-1").
		WillReturnRows(sqlmock.NewRows([]string{"model", "decision", "count"}).
			AddRow("gpt-4o", "left", 3).
			AddRow("gpt-4o", "unclear", 1).
			AddRow("gemini-2.0-flash", "right", 2))

	got, err := repo.DecisionCounts(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]map[analysis.Decision]int{
		"gpt-4o":           {analysis.Left: 3, analysis.Unclear: 1},
		"gemini-2.0-flash": {analysis.Right: 2},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate(t *testing.T) {
	repo, mock := mockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("create table if not exists ledger_rows")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
