// Package telegram answers bot commands about scenarios, prompts and stored
// results.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"philalign/api/internal/analysis"
	"philalign/api/internal/compare"
	"philalign/api/internal/ledger"
	"philalign/api/internal/prompt"
	"philalign/api/internal/scenario"
	"philalign/api/internal/util"
)

const maxReply = 3900

const usage = "Commands:\n" +
	"/scenarios - list scenarios\n" +
	"/prompt <id> [standard|cot|induced_cot] - show a prompt\n" +
	"/analyze <text> - classify a response\n" +
	"/ask <id> - ask every configured provider\n" +
	"/results - list stored results"

type Router struct {
	Bot          *tgbotapi.BotAPI
	Scenarios    *scenario.Store
	Orchestrator *compare.Orchestrator
	Catalog      *ledger.Catalog
	Log          *zap.Logger
}

// Run long-polls for updates until ctx is done.
func (r *Router) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := r.Bot.GetUpdatesChan(u)
	defer r.Bot.StopReceivingUpdates()
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd := <-updates:
			r.HandleUpdate(ctx, upd)
		}
	}
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil || !upd.Message.IsCommand() {
		return
	}
	cid := upd.Message.Chat.ID
	for _, text := range r.Handle(ctx, upd.Message.Command(), upd.Message.CommandArguments()) {
		r.send(cid, text)
	}
}

func (r *Router) send(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, util.Truncate(text, maxReply))); err != nil {
		r.log().Warn("telegram send", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Router) store() *scenario.Store {
	if r.Scenarios == nil {
		return scenario.Default()
	}
	return r.Scenarios
}

// Handle returns the replies to one command.
func (r *Router) Handle(ctx context.Context, command, args string) []string {
	args = strings.TrimSpace(args)
	switch command {
	case "start", "help":
		return []string{usage}
	case "scenarios":
		var b strings.Builder
		for _, s := range r.store().List() {
			fmt.Fprintf(&b, "%d. %s\n", s.ID, s.Name)
		}
		return []string{b.String()}
	case "prompt":
		return []string{r.prompt(args)}
	case "analyze":
		if args == "" {
			return []string{"Usage: /analyze <text>"}
		}
		return []string{describe(analysis.Analyze(args))}
	case "ask":
		return r.ask(ctx, args)
	case "results":
		return []string{r.results()}
	}
	return []string{"Unknown command.\n\n" + usage}
}

func (r *Router) prompt(args string) string {
	f := strings.Fields(args)
	if len(f) == 0 {
		return "Usage: /prompt <id> [standard|cot|induced_cot]"
	}
	s, err := r.store().Resolve(f[0])
	if err != nil {
		return err.Error()
	}
	rt := prompt.Standard
	if len(f) > 1 {
		if rt, err = prompt.ParseReasoningType(f[1]); err != nil {
			return err.Error()
		}
	}
	v, err := prompt.Build(s, rt)
	if err != nil {
		return err.Error()
	}
	return v.Text
}

func (r *Router) ask(ctx context.Context, args string) []string {
	if r.Orchestrator == nil {
		return []string{"Asking providers is disabled."}
	}
	if args == "" {
		args = "1"
	}
	s, err := r.store().Resolve(args)
	if err != nil {
		return []string{err.Error()}
	}
	models, _ := compare.SelectModels(r.Orchestrator.Clients, nil, nil)
	if len(models) == 0 {
		return []string{"No provider is configured."}
	}
	l, _, err := r.Orchestrator.Run(ctx, compare.Plan{
		Models:         models,
		ReasoningTypes: []prompt.ReasoningType{prompt.Standard},
		Scenarios:      []scenario.Scenario{s},
		Framed:         true,
	})
	if err != nil {
		return []string{err.Error()}
	}
	var out []string
	l.Walk(func(p, m, _ string, g *ledger.Group) {
		for _, resp := range g.Scenarios {
			head := fmt.Sprintf("%s (%s)", strings.ToUpper(p), m)
			if resp.Analysis != nil {
				head += ", decision: " + string(resp.Analysis.Decision)
			}
			out = append(out, head+"\n\n"+resp.Response)
		}
	})
	return out
}

func (r *Router) results() string {
	if r.Catalog == nil {
		return "No results directory configured."
	}
	all, err := r.Catalog.List()
	if err != nil {
		return err.Error()
	}
	if len(all) == 0 {
		return "No stored results."
	}
	var b strings.Builder
	for _, s := range all {
		b.WriteString(strconv.Itoa(s.Index) + ". " + s.Name + "\n")
	}
	return b.String()
}

func describe(a analysis.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decision: %s\n", a.Decision)
	fmt.Fprintf(&b, "Framework: %s\n", a.EthicalFramework)
	fmt.Fprintf(&b, "Words: %d, reasoning steps: %d\n", a.WordCount, a.ReasoningSteps)
	fmt.Fprintf(&b, "Uncertainty: %t", a.ContainsUncertainty)
	if len(a.EthicalPrinciples) > 0 {
		fmt.Fprintf(&b, "\nPrinciples: %s", strings.Join(a.EthicalPrinciples, ", "))
	}
	return b.String()
}
