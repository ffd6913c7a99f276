// Package store mirrors ledger rows into Postgres for ad-hoc querying.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"philalign/api/internal/analysis"
	"philalign/api/internal/ledger"
)

const Schema = `
create table if not exists ledger_rows (
    run_id               text        not null,
    provider             text        not null,
    model                text        not null,
    reasoning_type       text        not null,
    scenario_id          integer     not null,
    position             integer     not null,
    scenario_name        text        not null,
    category             text        not null default '',
    errored              boolean     not null,
    error                text        not null default '',
    word_count           integer     not null default 0,
    char_count           integer     not null default 0,
    reasoning_steps      integer     not null default 0,
    principles_count     integer     not null default 0,
    contains_uncertainty boolean     not null default false,
    decision_made        boolean     not null default false,
    decision             text        not null default '',
    ethical_framework    text        not null default '',
    created_at           timestamptz not null default now(),
    primary key (run_id, provider, model, reasoning_type, scenario_id)
)`

// Open connects through the pgx database/sql driver and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

type RowRepo struct{ DB *sql.DB }

func NewRowRepo(db *sql.DB) *RowRepo { return &RowRepo{DB: db} }

func (r *RowRepo) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, Schema)
	return err
}

const upsertRow = `
insert into ledger_rows(run_id, provider, model, reasoning_type, scenario_id, position,
    scenario_name, category, errored, error, word_count, char_count, reasoning_steps,
    principles_count, contains_uncertainty, decision_made, decision, ethical_framework)
values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
on conflict (run_id, provider, model, reasoning_type, scenario_id)
do update set position=excluded.position, scenario_name=excluded.scenario_name,
    category=excluded.category, errored=excluded.errored, error=excluded.error,
    word_count=excluded.word_count, char_count=excluded.char_count,
    reasoning_steps=excluded.reasoning_steps, principles_count=excluded.principles_count,
    contains_uncertainty=excluded.contains_uncertainty, decision_made=excluded.decision_made,
    decision=excluded.decision, ethical_framework=excluded.ethical_framework, created_at=now()`

// SaveRun writes rows under runID in one transaction. Saving the same run
// again updates the existing rows.
func (r *RowRepo) SaveRun(ctx context.Context, runID string, rows []ledger.Row) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertRow)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err = stmt.ExecContext(ctx,
			runID, row.Provider, row.Model, row.ReasoningType, row.ScenarioID, row.ID,
			row.ScenarioName, row.Category, row.Errored, row.Error,
			row.WordCount, row.CharCount, row.ReasoningSteps, row.EthicalPrinciplesCount,
			row.ContainsUncertainty, row.DecisionMade, string(row.Decision), string(row.EthicalFramework),
		); err != nil {
			return fmt.Errorf("insert %s/%s/%s #%d: %w", row.Provider, row.Model, row.ReasoningType, row.ScenarioID, err)
		}
	}
	return tx.Commit()
}

// FindRun returns the rows of runID in ledger order. An unknown run gives
// an empty slice.
func (r *RowRepo) FindRun(ctx context.Context, runID string) ([]ledger.Row, error) {
	const q = `
select provider, model, reasoning_type, position, scenario_id, scenario_name, category,
       errored, error, word_count, char_count, reasoning_steps, principles_count,
       contains_uncertainty, decision_made, decision, ethical_framework
from ledger_rows
where run_id = $1
order by created_at, provider, model, reasoning_type, position`
	rs, err := r.DB.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	out := []ledger.Row{}
	for rs.Next() {
		var (
			row                 ledger.Row
			decision, framework string
		)
		if err := rs.Scan(&row.Provider, &row.Model, &row.ReasoningType, &row.ID, &row.ScenarioID,
			&row.ScenarioName, &row.Category, &row.Errored, &row.Error,
			&row.WordCount, &row.CharCount, &row.ReasoningSteps, &row.EthicalPrinciplesCount,
			&row.ContainsUncertainty, &row.DecisionMade, &decision, &framework); err != nil {
			return nil, err
		}
		row.Decision = analysis.Decision(decision)
		row.EthicalFramework = analysis.Framework(framework)
		row.ContainsEthicalPrinciples = row.EthicalPrinciplesCount > 0
		out = append(out, row)
	}
	return out, rs.Err()
}

// DecisionCounts aggregates decisions per model for one run.
func (r *RowRepo) DecisionCounts(ctx context.Context, runID string) (map[string]map[analysis.Decision]int, error) {
	const q = `
select model, decision, count(*)
from ledger_rows
where run_id = $1 and not errored
group by model, decision`
	rs, err := r.DB.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	out := map[string]map[analysis.Decision]int{}
	for rs.Next() {
		var (
			model, decision string
			n               int
		)
		if err := rs.Scan(&model, &decision, &n); err != nil {
			return nil, err
		}
		if out[model] == nil {
			out[model] = map[analysis.Decision]int{}
		}
		out[model][analysis.Decision(decision)] = n
	}
	return out, rs.Err()
}
