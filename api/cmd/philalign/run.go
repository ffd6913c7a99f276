package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"philalign/api/internal/apperr"
	"philalign/api/internal/cloud"
	"philalign/api/internal/compare"
	"philalign/api/internal/ledger"
	"philalign/api/internal/notify"
	"philalign/api/internal/prompt"
	"philalign/api/internal/scenario"
	"philalign/api/internal/store"
)

type runFlags struct {
	providers      []string
	models         []string
	reasoningTypes []string
	scenarios      []string
	scenariosFile  string
	samples        int
	categories     []string
	seed           int64
	seeded         bool
	framed         bool
	parallel       bool
	noSave         bool
	mirror         bool
	upload         bool
	notify         bool
}

func newRunCmd(a *app) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run scenarios through models and reasoning types and save the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			f.seeded = cmd.Flags().Changed("seed")
			return a.run(ctx, f)
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVarP(&f.providers, "providers", "p", nil, "openai, anthropic, google (default: every configured provider)")
	fl.StringSliceVarP(&f.models, "models", "m", nil, "model ids (default: the default model of each selected provider)")
	fl.StringSliceVarP(&f.reasoningTypes, "reasoning-types", "r", nil, "standard, cot, induced_cot (default: all)")
	fl.StringSliceVarP(&f.scenarios, "scenarios", "s", nil, "scenario ids or names (default: all)")
	fl.StringVar(&f.scenariosFile, "scenarios-file", "", "load scenarios from a .csv or .xlsx table")
	fl.IntVar(&f.samples, "samples", 0, "scenarios per category (0: all)")
	fl.StringSliceVar(&f.categories, "categories", nil, "only these categories")
	fl.Int64Var(&f.seed, "seed", 0, "shuffle each category with this seed before sampling (unset: catalog order)")
	fl.BoolVar(&f.framed, "framed", false, "wrap each scenario in the decision-framing instruction")
	fl.BoolVar(&f.parallel, "parallel", false, "query providers concurrently")
	fl.BoolVar(&f.noSave, "no-save", false, "do not write the ledger file")
	fl.BoolVar(&f.mirror, "db", false, "mirror rows into DATABASE_URL")
	fl.BoolVar(&f.upload, "upload", false, "upload the ledger file to S3_BUCKET")
	fl.BoolVar(&f.notify, "notify", false, "post the run summary to TELEGRAM_CHAT_ID")
	return cmd
}

func (a *app) run(ctx context.Context, f runFlags) error {
	clients := a.clients()

	scs, err := a.selectScenarios(f)
	if err != nil {
		return err
	}
	rts, err := prompt.ParseReasoningTypes(f.reasoningTypes)
	if err != nil {
		return err
	}
	models, err := compare.SelectModels(clients, f.providers, f.models)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return errNoProvider
	}

	orch := &compare.Orchestrator{
		Clients:     clients,
		Delay:       a.cfg.CallDelay,
		Policy:      a.policy(),
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		System:      a.systemPrompts(),
		Parallel:    f.parallel,
		Log:         a.log,
	}
	l, rep, runErr := orch.Run(ctx, compare.Plan{
		Models:         models,
		ReasoningTypes: rts,
		Scenarios:      scs,
		Framed:         f.framed,
	})
	if l == nil {
		return runErr
	}
	if runErr != nil {
		a.log.Warn("run interrupted, keeping partial results", zap.Error(runErr))
	}

	a.printReport(rep)

	var path string
	if !f.noSave {
		if path, err = ledger.Persist(l, a.cfg.ResultsDir, a.cfg.ResultsPrefix, time.Now()); err != nil {
			return err
		}
		a.printf("\nResults saved to %s\n", path)
	}
	// the sinks below run on a fresh context so an interrupted run still lands
	sinkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if f.mirror {
		a.mirrorRows(sinkCtx, rep.RunID, l)
	}
	if f.upload && path != "" {
		a.uploadFile(sinkCtx, path)
	}
	if f.notify {
		a.notifyRun(rep, path)
	}
	return runErr
}

func (a *app) selectScenarios(f runFlags) ([]scenario.Scenario, error) {
	st := scenario.Default()
	if f.scenariosFile != "" {
		var err error
		if st, err = scenario.LoadFile(f.scenariosFile); err != nil {
			return nil, err
		}
	}
	if len(f.scenarios) > 0 {
		out := make([]scenario.Scenario, 0, len(f.scenarios))
		for _, ref := range f.scenarios {
			s, err := st.Resolve(ref)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	}
	if f.samples > 0 || len(f.categories) > 0 {
		var rng *rand.Rand
		if f.seeded {
			rng = rand.New(rand.NewSource(f.seed))
		}
		out := st.Sample(f.samples, f.categories, rng)
		if len(out) == 0 {
			return nil, apperr.InvalidArgument("no scenarios in categories %s", strings.Join(f.categories, ", "))
		}
		return out, nil
	}
	return st.List(), nil
}

var errNoProvider = apperr.Configuration("no provider configured: set OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY")

func (a *app) printReport(rep compare.Report) {
	a.printf("Run %s\n", rep.RunID)
	for _, g := range rep.Groups {
		a.printf("  %-10s %-28s %-12s %3d ok %3d errored\n", g.Provider, g.Model, g.ReasoningType, g.Succeeded, g.Errored)
	}
	for _, s := range rep.Skipped {
		a.printf("  skipped %s: %s\n", s.Model, s.Reason)
	}
}

func (a *app) mirrorRows(ctx context.Context, runID string, l *ledger.Ledger) {
	if a.cfg.DatabaseURL == "" {
		a.log.Warn("--db given but DATABASE_URL is not set")
		return
	}
	db, err := store.Open(ctx, a.cfg.DatabaseURL)
	if err != nil {
		a.log.Error("open database", zap.Error(err))
		return
	}
	defer db.Close()
	repo := store.NewRowRepo(db)
	if err := repo.Migrate(ctx); err != nil {
		a.log.Error("migrate", zap.Error(err))
		return
	}
	rows := ledger.Summarize(l)
	if err := repo.SaveRun(ctx, runID, rows); err != nil {
		a.log.Error("mirror rows", zap.Error(err))
		return
	}
	a.log.Info("rows mirrored", zap.String("run_id", runID), zap.Int("rows", len(rows)))
}

func (a *app) uploadFile(ctx context.Context, path string) {
	u, err := cloud.New(ctx, a.cfg.S3Bucket, a.cfg.S3Prefix, a.cfg.AWSRegion)
	if err != nil {
		a.log.Error("s3 uploader", zap.Error(err))
		return
	}
	url, err := u.Upload(ctx, path)
	if err != nil {
		a.log.Error("upload", zap.Error(err))
		return
	}
	a.printf("Uploaded to %s\n", url)
}

func (a *app) notifyRun(rep compare.Report, path string) {
	n, err := notify.New(a.cfg.TelegramBotToken, a.cfg.TelegramChatID, "", nil)
	if err != nil {
		a.log.Error("telegram", zap.Error(err))
		return
	}
	if err := n.Send(rep, path); err != nil {
		a.log.Error("telegram send", zap.Error(err))
	}
}
