package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"philalign/api/internal/compare"
	"philalign/api/internal/llm"
	"philalign/api/internal/prompt"
	"philalign/api/internal/scenario"
	"philalign/api/internal/util"
)

const connectivityPrompt = "Explain the concept of artificial intelligence in one paragraph."

func newAskCmd(a *app) *cobra.Command {
	var rt string
	cmd := &cobra.Command{
		Use:   "ask [scenario id or name]",
		Short: "Ask every configured provider about one scenario and print the answers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := "1"
			if len(args) == 1 {
				ref = args[0]
			}
			s, err := scenario.Default().Resolve(ref)
			if err != nil {
				return err
			}
			t, err := prompt.ParseReasoningType(rt)
			if err != nil {
				return err
			}
			return a.ask(cmd.Context(), s, t)
		},
	}
	cmd.Flags().StringVarP(&rt, "reasoning-type", "r", string(prompt.Standard), "standard, cot or induced_cot")
	return cmd
}

func (a *app) ask(ctx context.Context, s scenario.Scenario, rt prompt.ReasoningType) error {
	clients := a.clients()
	models, _ := compare.SelectModels(clients, nil, nil)
	if len(models) == 0 {
		return errNoProvider
	}
	orch := &compare.Orchestrator{
		Clients:     clients,
		Policy:      a.policy(),
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		System:      a.systemPrompts(),
		Log:         a.log,
	}
	l, _, err := orch.Run(ctx, compare.Plan{
		Models:         models,
		ReasoningTypes: []prompt.ReasoningType{rt},
		Scenarios:      []scenario.Scenario{s},
		Framed:         true,
	})
	if err != nil {
		return err
	}

	a.printf("Scenario %d: %s\n", s.ID, s.Name)
	for _, line := range util.Wrap(s.Text, 80) {
		a.printf("%s\n", line)
	}
	for _, m := range models {
		info, _ := llm.Lookup(m)
		g, ok := l.Lookup(string(info.Provider), m, string(rt))
		if !ok || len(g.Scenarios) == 0 {
			continue
		}
		r := g.Scenarios[0]
		words := 0
		if r.Analysis != nil {
			words = r.Analysis.WordCount
		}
		a.printf("\n%s RESPONSE (%s, %d words)\n%s\n", strings.ToUpper(string(info.Provider)), m, words, strings.Repeat("=", 80))
		for _, line := range util.Wrap(r.Response, 80) {
			a.printf("%s\n", line)
		}
	}
	return nil
}

func newTestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Check connectivity to every provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.connectivity(cmd.Context(), a.clients())
			return nil
		},
	}
}

// connectivity reports one line per provider and returns how many answered.
func (a *app) connectivity(ctx context.Context, clients llm.Clients) int {
	ok := 0
	for _, p := range llm.Providers() {
		s, found := clients.Get(p)
		if !found {
			a.printf("❌ %s: %s not set\n", p, p.KeyEnv())
			continue
		}
		model := llm.DefaultModel(p)
		text, err := llm.Call(ctx, s, llm.Request{
			Model:       model,
			Prompt:      connectivityPrompt,
			MaxTokens:   a.cfg.MaxTokens,
			Temperature: a.cfg.Temperature,
		}, llm.Policy{Timeout: a.cfg.CallTimeout})
		if err != nil {
			a.printf("❌ %s (%s): %v\n", p, model, err)
			continue
		}
		ok++
		a.printf("✅ %s (%s) is working. Response: %d words\n", p, model, len(strings.Fields(text)))
	}
	return ok
}
