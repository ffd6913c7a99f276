// Package compare runs scenarios through models and reasoning types and
// collects the analyzed responses into a ledger.
package compare

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"philalign/api/internal/analysis"
	"philalign/api/internal/apperr"
	"philalign/api/internal/ledger"
	"philalign/api/internal/llm"
	"philalign/api/internal/prompt"
	"philalign/api/internal/scenario"
)

type Plan struct {
	Models         []string
	ReasoningTypes []prompt.ReasoningType
	Scenarios      []scenario.Scenario
	// Framed wraps each scenario in the decision-framing instruction first.
	Framed bool
}

// Skip records a requested model that was not run.
type Skip struct {
	Model    string       `json:"model"`
	Provider llm.Provider `json:"provider"`
	Err      error        `json:"-"`
	Reason   string       `json:"reason"`
}

type GroupOutcome struct {
	Provider      string `json:"provider"`
	Model         string `json:"model"`
	ReasoningType string `json:"reasoning_type"`
	Succeeded     int    `json:"succeeded"`
	Errored       int    `json:"errored"`
}

type Report struct {
	RunID   string         `json:"run_id"`
	Skipped []Skip         `json:"skipped"`
	Groups  []GroupOutcome `json:"groups"`
}

type Orchestrator struct {
	Clients llm.Clients
	// Analyze classifies a response; nil uses analysis.Analyze.
	Analyze func(string) analysis.Analysis
	// Delay is the minimum spacing between calls to the same provider.
	Delay       time.Duration
	Policy      llm.Policy
	MaxTokens   int
	Temperature float64
	// System holds the system message per provider; missing means none.
	System map[llm.Provider]string
	// Parallel runs providers concurrently, each still sequential.
	Parallel bool
	Log      *zap.Logger
}

type job struct {
	provider llm.Provider
	sender   llm.Sender
	models   []string
}

// Run validates the whole plan before making any call. Provider failures are
// recorded in the ledger; on cancellation the partial ledger is returned
// together with the context error.
func (o *Orchestrator) Run(ctx context.Context, plan Plan) (*ledger.Ledger, Report, error) {
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}
	rep := Report{RunID: uuid.NewString(), Skipped: []Skip{}, Groups: []GroupOutcome{}}

	infos, err := validate(plan)
	if err != nil {
		return nil, rep, err
	}

	var jobs []*job
	byProvider := map[llm.Provider]*job{}
	for _, m := range infos {
		sender, ok := o.Clients.Get(m.Provider)
		if !ok {
			cerr := &apperr.ConfigurationError{Provider: string(m.Provider), Reason: m.Provider.KeyEnv() + " not set"}
			log.Warn("skipping model", zap.String("model", m.ID), zap.Error(cerr))
			rep.Skipped = append(rep.Skipped, Skip{Model: m.ID, Provider: m.Provider, Err: cerr, Reason: cerr.Error()})
			continue
		}
		j := byProvider[m.Provider]
		if j == nil {
			j = &job{provider: m.Provider, sender: sender}
			byProvider[m.Provider] = j
			jobs = append(jobs, j)
		}
		j.models = append(j.models, m.ID)
	}
	if len(jobs) == 0 {
		return nil, rep, apperr.Configuration("none of the requested models has a configured provider")
	}

	log.Info("comparison started",
		zap.String("run_id", rep.RunID),
		zap.Int("models", len(infos)-len(rep.Skipped)),
		zap.Int("reasoning_types", len(plan.ReasoningTypes)),
		zap.Int("scenarios", len(plan.Scenarios)),
		zap.Bool("parallel", o.Parallel))

	parts := make([]*ledger.Ledger, len(jobs))
	for i := range parts {
		parts[i] = ledger.New()
	}
	if o.Parallel && len(jobs) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for i, j := range jobs {
			g.Go(func() error { return o.runProvider(gctx, log, j, plan, parts[i]) })
		}
		err = g.Wait()
	} else {
		for i, j := range jobs {
			if err = o.runProvider(ctx, log, j, plan, parts[i]); err != nil {
				break
			}
		}
	}

	out := ledger.New()
	for _, p := range parts {
		out.Merge(p)
	}
	out.Walk(func(p, m, rt string, g *ledger.Group) {
		rep.Groups = append(rep.Groups, GroupOutcome{
			Provider: p, Model: m, ReasoningType: rt,
			Succeeded: g.Summary.Succeeded, Errored: g.Summary.Errored,
		})
		log.Info("group finished",
			zap.String("provider", p), zap.String("model", m), zap.String("reasoning_type", rt),
			zap.Int("succeeded", g.Summary.Succeeded), zap.Int("errored", g.Summary.Errored))
	})
	return out, rep, err
}

func validate(plan Plan) ([]llm.ModelInfo, error) {
	if len(plan.Models) == 0 {
		return nil, apperr.InvalidArgument("no models requested")
	}
	if len(plan.ReasoningTypes) == 0 {
		return nil, apperr.InvalidArgument("no reasoning types requested")
	}
	if len(plan.Scenarios) == 0 {
		return nil, apperr.InvalidArgument("no scenarios selected")
	}
	infos := make([]llm.ModelInfo, 0, len(plan.Models))
	seen := map[string]bool{}
	for _, id := range plan.Models {
		m, err := llm.Lookup(id)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		infos = append(infos, m)
	}
	for _, rt := range plan.ReasoningTypes {
		if !rt.Valid() {
			return nil, apperr.InvalidArgument("unknown reasoning type %q", string(rt))
		}
	}
	for _, s := range plan.Scenarios {
		if _, err := prompt.Build(s, prompt.Standard); err != nil {
			return nil, err
		}
	}
	return infos, nil
}

func (o *Orchestrator) limiter() *rate.Limiter {
	if o.Delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(o.Delay), 1)
}

// runProvider is the only writer of out.
func (o *Orchestrator) runProvider(ctx context.Context, log *zap.Logger, j *job, plan Plan, out *ledger.Ledger) error {
	analyze := o.Analyze
	if analyze == nil {
		analyze = analysis.Analyze
	}
	lim := o.limiter()
	system := o.System[j.provider]

	for _, model := range j.models {
		for _, rt := range plan.ReasoningTypes {
			g := out.Group(string(j.provider), model, string(rt))
			for n, sc := range plan.Scenarios {
				if err := lim.Wait(ctx); err != nil {
					return ctxErr(ctx, err)
				}
				if plan.Framed {
					sc.Text = prompt.Frame(sc.Text)
				}
				v, err := prompt.Build(sc, rt)
				if err != nil {
					return err
				}
				r := ledger.Response{
					ID:           n + 1,
					ScenarioID:   sc.ID,
					ScenarioName: sc.Name,
					Category:     sc.Category,
					Prompt:       v.Text,
				}

				text, err := llm.Call(ctx, j.sender, llm.Request{
					Model:       model,
					Prompt:      v.Text,
					System:      system,
					MaxTokens:   o.MaxTokens,
					Temperature: o.Temperature,
				}, o.Policy)
				if err != nil && ctx.Err() != nil {
					return ctx.Err()
				}
				if err != nil {
					log.Warn("call failed",
						zap.String("model", model), zap.String("reasoning_type", string(rt)),
						zap.Int("scenario_id", sc.ID), zap.Error(err))
					r.Response, r.Error = ledger.Failure(err)
				} else {
					a := analyze(text)
					r.Response = text
					r.Analysis = &a
					log.Debug("call ok",
						zap.String("model", model), zap.String("reasoning_type", string(rt)),
						zap.Int("scenario_id", sc.ID), zap.String("decision", string(a.Decision)))
				}
				g.Add(r)
			}
		}
	}
	return nil
}

// Wait fails early when the next slot lies past the deadline, before the
// context itself has expired.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}
