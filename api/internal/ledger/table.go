package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"philalign/api/internal/analysis"
)

// Row is the flat form of one Response.
type Row struct {
	Provider                  string
	Model                     string
	ReasoningType             string
	ID                        int
	ScenarioID                int
	ScenarioName              string
	Category                  string
	Errored                   bool
	Error                     string
	WordCount                 int
	CharCount                 int
	ReasoningSteps            int
	ContainsEthicalPrinciples bool
	EthicalPrinciplesCount    int
	ContainsUncertainty       bool
	DecisionMade              bool
	Decision                  analysis.Decision
	EthicalFramework          analysis.Framework
}

// Summarize flattens l into one row per response, in ledger order.
func Summarize(l *Ledger) []Row {
	var rows []Row
	l.Walk(func(p, m, rt string, g *Group) {
		for _, r := range g.Scenarios {
			row := Row{
				Provider:      p,
				Model:         m,
				ReasoningType: rt,
				ID:            r.ID,
				ScenarioID:    r.ScenarioID,
				ScenarioName:  r.ScenarioName,
				Category:      r.Category,
				Errored:       r.Failed(),
			}
			if r.Error != nil {
				row.Error = *r.Error
			}
			if a := r.Analysis; a != nil && !row.Errored {
				row.WordCount = a.WordCount
				row.CharCount = a.CharCount
				row.ReasoningSteps = a.ReasoningSteps
				row.ContainsEthicalPrinciples = a.ContainsEthicalPrinciples
				row.EthicalPrinciplesCount = len(a.EthicalPrinciples)
				row.ContainsUncertainty = a.ContainsUncertainty
				row.DecisionMade = a.DecisionMade
				row.Decision = a.Decision
				row.EthicalFramework = a.EthicalFramework
			}
			rows = append(rows, row)
		}
	})
	return rows
}

// Observations returns the analyzed, non-errored responses of l.
func Observations(l *Ledger) []analysis.Observation {
	var out []analysis.Observation
	l.Walk(func(p, m, rt string, g *Group) {
		for _, r := range g.Scenarios {
			if r.Failed() || r.Analysis == nil {
				continue
			}
			out = append(out, analysis.Observation{
				Provider:      p,
				Model:         m,
				ReasoningType: rt,
				ScenarioID:    r.ScenarioID,
				Analysis:      *r.Analysis,
			})
		}
	})
	return out
}

var header = []string{
	"provider", "model", "reasoning_type", "id", "scenario_id", "scenario_name", "category",
	"errored", "error", "word_count", "char_count", "reasoning_steps",
	"contains_ethical_principles", "ethical_principles_count", "contains_uncertainty",
	"decision_made", "decision", "ethical_framework",
}

func (r Row) cells() []string {
	return []string{
		r.Provider, r.Model, r.ReasoningType,
		strconv.Itoa(r.ID), strconv.Itoa(r.ScenarioID), r.ScenarioName, r.Category,
		strconv.FormatBool(r.Errored), r.Error,
		strconv.Itoa(r.WordCount), strconv.Itoa(r.CharCount), strconv.Itoa(r.ReasoningSteps),
		strconv.FormatBool(r.ContainsEthicalPrinciples), strconv.Itoa(r.EthicalPrinciplesCount),
		strconv.FormatBool(r.ContainsUncertainty), strconv.FormatBool(r.DecisionMade),
		string(r.Decision), string(r.EthicalFramework),
	}
}

func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.cells()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const sheetName = "results"

// WriteXLSX writes rows to a single-sheet workbook at path.
func WriteXLSX(path string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return err
	}
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &hdr); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := []any{
			r.Provider, r.Model, r.ReasoningType, r.ID, r.ScenarioID, r.ScenarioName, r.Category,
			r.Errored, r.Error, r.WordCount, r.CharCount, r.ReasoningSteps,
			r.ContainsEthicalPrinciples, r.EthicalPrinciplesCount, r.ContainsUncertainty,
			r.DecisionMade, string(r.Decision), string(r.EthicalFramework),
		}
		if err := f.SetSheetRow(sheetName, cell, &vals); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
