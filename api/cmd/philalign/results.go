package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"philalign/api/internal/analysis"
	"philalign/api/internal/apperr"
	"philalign/api/internal/ledger"
	"philalign/api/internal/util"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := a.catalog().List()
			if err != nil {
				return err
			}
			if len(all) == 0 {
				a.printf("No stored results in %s\n", a.cfg.ResultsDir)
				return nil
			}
			for _, s := range all {
				a.printf("%3d. %s  %s  %d bytes\n", s.Index, s.Name, s.ModTime.Format("2006-01-02 15:04:05"), s.Size)
			}
			return nil
		},
	}
}

func newViewCmd(a *app) *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "view <index>",
		Short: "Show a stored result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, s, err := a.openIndex(args[0])
			if err != nil {
				return err
			}
			a.printf("%s\n", s.Name)
			l.Walk(func(p, m, rt string, g *ledger.Group) {
				a.printf("\n%s / %s / %s: %d ok, %d errored, avg %.1f words, avg %.1f steps\n",
					p, m, rt, g.Summary.Succeeded, g.Summary.Errored, g.Summary.AvgWordCount, g.Summary.AvgSteps)
				for _, r := range g.Scenarios {
					decision := "-"
					if r.Analysis != nil {
						decision = string(r.Analysis.Decision)
					}
					a.printf("  #%d %s [%s]\n", r.ScenarioID, r.ScenarioName, decision)
					if !full {
						a.printf("     %s\n", util.Preview(r.Response, 100))
						continue
					}
					for _, line := range util.Wrap(r.Response, 76) {
						a.printf("     %s\n", line)
					}
				}
			})
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "print whole responses")
	return cmd
}

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear all | clear scenario <id> | clear <index>",
		Short: "Delete stored results",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.catalog()
			switch {
			case args[0] == "all" && len(args) == 1:
				n, err := c.Clear()
				if err != nil {
					return err
				}
				a.printf("Removed %d stored results\n", n)
			case args[0] == "scenario" && len(args) == 2:
				id, err := strconv.Atoi(args[1])
				if err != nil {
					return apperr.InvalidArgument("scenario id must be a number: %q", args[1])
				}
				n, err := c.ClearScenario(id)
				if err != nil {
					return err
				}
				a.printf("Removed %d responses for scenario %d\n", n, id)
			case len(args) == 1:
				i, err := strconv.Atoi(args[0])
				if err != nil {
					return apperr.InvalidArgument("result index must be a number: %q", args[0])
				}
				s, err := c.Remove(i)
				if err != nil {
					return err
				}
				a.printf("Removed %s\n", s.Name)
			default:
				return apperr.InvalidArgument("usage: clear all | clear scenario <id> | clear <index>")
			}
			return nil
		},
	}
}

func newBackupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backup [dir]",
		Short: "Copy stored results into a backup directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.catalog()
			dst := c.BackupDir(time.Now())
			if len(args) == 1 {
				dst = args[0]
			}
			n, err := c.Backup(dst)
			if err != nil {
				return err
			}
			a.printf("Backed up %d results to %s\n", n, dst)
			return nil
		},
	}
}

func newSummarizeCmd(a *app) *cobra.Command {
	var csvPath, xlsxPath string
	cmd := &cobra.Command{
		Use:   "summarize [index or file]",
		Short: "Print the flat result table of one result, or of all stored results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.selectLedger(args)
			if err != nil {
				return err
			}
			rows := ledger.Summarize(l)
			if csvPath == "" && xlsxPath == "" {
				return ledger.WriteCSV(a.out, rows)
			}
			if csvPath != "" {
				if err := writeCSVFile(csvPath, rows); err != nil {
					return err
				}
				a.printf("Wrote %s\n", csvPath)
			}
			if xlsxPath != "" {
				if err := ledger.WriteXLSX(xlsxPath, rows); err != nil {
					return err
				}
				a.printf("Wrote %s\n", xlsxPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the table to this CSV file")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the table to this XLSX file")
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "report [index or file]",
		Short: "Write ethical-alignment statistics and the flat table for plotting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.selectLedger(args)
			if err != nil {
				return err
			}
			if outDir == "" {
				outDir = filepath.Join(a.cfg.ResultsDir, "analysis")
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}
			obs := ledger.Observations(l)
			if len(obs) == 0 {
				return apperr.InvalidArgument("no successful responses to report on")
			}
			if err := writeJSONFile(filepath.Join(outDir, "ethical_alignment_stats.json"), analysis.NewAlignment(obs)); err != nil {
				return err
			}
			if err := writeJSONFile(filepath.Join(outDir, "summary_statistics.json"), analysis.Summarize(obs)); err != nil {
				return err
			}
			// errored responses carry no analysis and are left out of the table
			var rows []ledger.Row
			for _, r := range ledger.Summarize(l) {
				if !r.Errored {
					rows = append(rows, r)
				}
			}
			if err := ledger.WriteXLSX(filepath.Join(outDir, "philalignment_results.xlsx"), rows); err != nil {
				return err
			}
			if err := writeCSVFile(filepath.Join(outDir, "philalignment_results.csv"), rows); err != nil {
				return err
			}
			a.printf("Analyzed %d responses; reports written to %s\n", len(obs), outDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (default <results>/analysis)")
	return cmd
}

func (a *app) openIndex(arg string) (*ledger.Ledger, ledger.Stored, error) {
	i, err := strconv.Atoi(arg)
	if err != nil {
		return nil, ledger.Stored{}, apperr.InvalidArgument("result index must be a number: %q", arg)
	}
	return a.catalog().Open(i)
}

// selectLedger loads the result named by args: an index, a .json path, or,
// with no argument, every stored result merged in catalog order.
func (a *app) selectLedger(args []string) (*ledger.Ledger, error) {
	if len(args) == 1 {
		if strings.HasSuffix(args[0], ".json") {
			return ledger.Load(args[0])
		}
		l, _, err := a.openIndex(args[0])
		return l, err
	}
	all, err := a.catalog().List()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, apperr.NotFound("no stored results in %s", a.cfg.ResultsDir)
	}
	merged := ledger.New()
	for _, s := range all {
		l, err := ledger.Load(s.Path)
		if err != nil {
			return nil, err
		}
		merged.Merge(l)
	}
	return merged, nil
}

func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func writeCSVFile(path string, rows []ledger.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ledger.WriteCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
