package handle

import (
	"net/http"
	"strconv"

	"philalign/api/internal/analysis"
	"philalign/api/internal/prompt"
	"philalign/api/internal/scenario"
)

type AnalyzeRequest struct {
	Text string `json:"text"`
}

func (h *Handle) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req AnalyzeRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, analysis.Analyze(req.Text))
}

// PromptRequest names a scenario by id or, when ScenarioID is zero, by
// Scenario (an id or a name).
type PromptRequest struct {
	ScenarioID    int    `json:"scenario_id"`
	Scenario      string `json:"scenario"`
	ReasoningType string `json:"reasoning_type"`
	Framed        bool   `json:"framed"`
}

func (h *Handle) Prompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req PromptRequest
	if !decode(w, r, &req) {
		return
	}
	ref := req.Scenario
	if req.ScenarioID != 0 {
		ref = strconv.Itoa(req.ScenarioID)
	}
	s, err := h.scenarios.Resolve(ref)
	if err != nil {
		writeError(w, err)
		return
	}
	rt := prompt.Standard
	if req.ReasoningType != "" {
		if rt, err = prompt.ParseReasoningType(req.ReasoningType); err != nil {
			writeError(w, err)
			return
		}
	}
	v, err := variant(s, rt, req.Framed)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func variant(s scenario.Scenario, rt prompt.ReasoningType, framed bool) (prompt.Variant, error) {
	if framed {
		s.Text = prompt.Frame(s.Text)
	}
	return prompt.Build(s, rt)
}
