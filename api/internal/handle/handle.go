package handle

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"philalign/api/internal/apperr"
	"philalign/api/internal/compare"
	"philalign/api/internal/ledger"
	"philalign/api/internal/scenario"
)

type Options struct {
	Scenarios    *scenario.Store
	Orchestrator *compare.Orchestrator
	// ResultsDir enables persisting /v1/compare ledgers; empty keeps them in
	// the response only.
	ResultsDir    string
	ResultsPrefix string
	Log           *zap.Logger
}

type Handle struct {
	scenarios *scenario.Store
	orch      *compare.Orchestrator
	catalog   *ledger.Catalog
	prefix    string
	log       *zap.Logger
}

func New(o Options) *Handle {
	h := &Handle{
		scenarios: o.Scenarios,
		orch:      o.Orchestrator,
		prefix:    o.ResultsPrefix,
		log:       o.Log,
	}
	if h.scenarios == nil {
		h.scenarios = scenario.Default()
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	if o.ResultsDir != "" {
		h.catalog = ledger.NewCatalog(o.ResultsDir)
	}
	if h.prefix == "" {
		h.prefix = "multi_provider_comparison"
	}
	return h
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusOf(err))
}

func statusOf(err error) int {
	switch apperr.GetCode(err) {
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperr.CodeConfiguration:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body of at most 1 MiB into v.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
