package handle

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"philalign/api/internal/apperr"
	"philalign/api/internal/compare"
	"philalign/api/internal/ledger"
	"philalign/api/internal/prompt"
	"philalign/api/internal/scenario"
)

const compareTimeout = 30 * time.Minute

type CompareRequest struct {
	Providers      []string `json:"providers"`
	Models         []string `json:"models"`
	ReasoningTypes []string `json:"reasoning_types"`
	ScenarioIDs    []int    `json:"scenario_ids"`
	Framed         bool     `json:"framed"`
}

// Compare runs a comparison and answers with the ledger JSON. Omitted
// fields mean: the default model of every configured provider, every
// reasoning type, every scenario. Models of requested providers without a
// key are listed in X-Skipped.
func (h *Handle) Compare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if h.orch == nil {
		writeError(w, apperr.Configuration("comparisons are not enabled"))
		return
	}
	var req CompareRequest
	if !decode(w, r, &req) {
		return
	}
	plan, err := h.plan(req)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), compareTimeout)
	defer cancel()

	l, rep, err := h.orch.Run(ctx, plan)
	if err != nil && (l == nil || !errors.Is(err, context.DeadlineExceeded)) {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Run-ID", rep.RunID)
	if len(rep.Skipped) > 0 {
		skipped := make([]string, 0, len(rep.Skipped))
		for _, sk := range rep.Skipped {
			skipped = append(skipped, sk.Model)
		}
		w.Header().Set("X-Skipped", strings.Join(skipped, ","))
	}
	if err != nil {
		w.Header().Set("X-Partial", "true")
	}
	if h.catalog != nil {
		path, perr := ledger.Persist(l, h.catalog.Dir, h.prefix, time.Now())
		if perr != nil {
			h.log.Error("persist ledger", zap.String("run_id", rep.RunID), zap.Error(perr))
		} else {
			w.Header().Set("X-Ledger-Path", path)
		}
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handle) plan(req CompareRequest) (compare.Plan, error) {
	plan := compare.Plan{Framed: req.Framed}
	models, err := compare.SelectModels(h.orch.Clients, req.Providers, req.Models)
	if err != nil {
		return plan, err
	}
	if len(models) == 0 {
		return plan, apperr.Configuration("no provider is configured")
	}
	plan.Models = models

	rts, err := prompt.ParseReasoningTypes(req.ReasoningTypes)
	if err != nil {
		return plan, err
	}
	plan.ReasoningTypes = rts

	if len(req.ScenarioIDs) == 0 {
		plan.Scenarios = h.scenarios.List()
		return plan, nil
	}
	plan.Scenarios = make([]scenario.Scenario, 0, len(req.ScenarioIDs))
	for _, id := range req.ScenarioIDs {
		s, err := h.scenarios.Get(id)
		if err != nil {
			return plan, err
		}
		plan.Scenarios = append(plan.Scenarios, s)
	}
	return plan, nil
}
