package handle

import (
	"net/http"

	"philalign/api/internal/ledger"
	"philalign/api/internal/llm"
)

func (h *Handle) Scenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.scenarios.List())
}

type modelView struct {
	llm.ModelInfo
	Configured bool `json:"configured"`
}

// Models lists the registry and whether each provider has a client.
func (h *Handle) Models(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	var clients llm.Clients
	if h.orch != nil {
		clients = h.orch.Clients
	}
	out := []modelView{}
	for _, m := range llm.Models() {
		_, ok := clients.Get(m.Provider)
		out = append(out, modelView{ModelInfo: m, Configured: ok})
	}
	writeJSON(w, http.StatusOK, out)
}

// Results lists stored ledgers, newest first.
func (h *Handle) Results(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	if h.catalog == nil {
		writeJSON(w, http.StatusOK, []ledger.Stored{})
		return
	}
	all, err := h.catalog.List()
	if err != nil {
		writeError(w, err)
		return
	}
	if all == nil {
		all = []ledger.Stored{}
	}
	writeJSON(w, http.StatusOK, all)
}
