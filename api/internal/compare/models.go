package compare

import (
	"slices"

	"philalign/api/internal/apperr"
	"philalign/api/internal/llm"
)

// SelectModels resolves the models of a plan from provider and model
// selections. With no selection it picks the default model of every
// configured provider. Requested providers are kept even when they are not
// configured, so the run reports them as skipped. Models outside the
// requested providers are rejected.
func SelectModels(c llm.Clients, providers, models []string) ([]string, error) {
	ps := make([]llm.Provider, 0, len(providers))
	for _, name := range providers {
		p, err := llm.ParseProvider(name)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(ps, p) {
			ps = append(ps, p)
		}
	}

	if len(models) > 0 {
		if len(ps) == 0 {
			return models, nil
		}
		for _, id := range models {
			m, err := llm.Lookup(id)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(ps, m.Provider) {
				return nil, apperr.InvalidArgument("model %s belongs to %s, which is not among the requested providers", id, m.Provider)
			}
		}
		return models, nil
	}

	var out []string
	if len(ps) > 0 {
		for _, p := range ps {
			out = append(out, llm.DefaultModel(p))
		}
		return out, nil
	}
	for _, p := range llm.Providers() {
		if _, ok := c.Get(p); ok {
			out = append(out, llm.DefaultModel(p))
		}
	}
	return out, nil
}
