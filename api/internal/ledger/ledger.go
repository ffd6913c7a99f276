// Package ledger holds the nested result structure of a comparison run and
// its on-disk form.
package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"philalign/api/internal/analysis"
)

// ErrorPrefix starts the response text of a failed call.
const ErrorPrefix = "[ERROR]"

// Response is one scenario call inside a group. Provider, Model and
// ReasoningType come from the group's position in the ledger.
type Response struct {
	ID           int                `json:"id"`
	ScenarioID   int                `json:"scenario_id"`
	ScenarioName string             `json:"scenario_name"`
	Category     string             `json:"category,omitempty"`
	Prompt       string             `json:"prompt"`
	Response     string             `json:"response"`
	Error        *string            `json:"error"`
	Analysis     *analysis.Analysis `json:"analysis"`

	Provider      string `json:"-"`
	Model         string `json:"-"`
	ReasoningType string `json:"-"`
}

// Failed reports whether the call errored. Files written before the error
// field existed only carry the prefix.
func (r Response) Failed() bool {
	return r.Error != nil || strings.HasPrefix(r.Response, ErrorPrefix)
}

// Failure builds the response recorded for a failed call.
func Failure(err error) (text string, msg *string) {
	m := err.Error()
	return ErrorPrefix + " " + m, &m
}

type Group struct {
	Scenarios []Response         `json:"scenarios"`
	Summary   analysis.Aggregate `json:"summary"`
}

// Add appends r, stamping it with the group's key, and refreshes Summary.
func (g *Group) Add(r Response) {
	r.Provider, r.Model, r.ReasoningType = g.Summary.Provider, g.Summary.Model, g.Summary.ReasoningType
	g.Scenarios = append(g.Scenarios, r)
	g.Resummarize()
}

// Resummarize recomputes Summary from Scenarios.
func (g *Group) Resummarize() {
	agg := analysis.NewAggregator(g.Summary.Provider, g.Summary.Model, g.Summary.ReasoningType)
	for _, r := range g.Scenarios {
		if r.Failed() || r.Analysis == nil {
			agg.AddError()
			continue
		}
		agg.Add(*r.Analysis)
	}
	g.Summary = agg.Result()
}

type groupNode struct {
	reasoningType string
	group         *Group
}

type modelNode struct {
	name   string
	groups []*groupNode
}

type providerNode struct {
	name   string
	models []*modelNode
}

// Ledger maps provider -> model -> reasoning type -> Group. Every level keeps
// insertion order, in memory and in JSON.
type Ledger struct {
	providers []*providerNode
}

func New() *Ledger { return &Ledger{} }

// Group returns the group for the key, creating it at the end of each level
// when missing.
func (l *Ledger) Group(provider, model, reasoningType string) *Group {
	var p *providerNode
	for _, n := range l.providers {
		if n.name == provider {
			p = n
			break
		}
	}
	if p == nil {
		p = &providerNode{name: provider}
		l.providers = append(l.providers, p)
	}
	var m *modelNode
	for _, n := range p.models {
		if n.name == model {
			m = n
			break
		}
	}
	if m == nil {
		m = &modelNode{name: model}
		p.models = append(p.models, m)
	}
	for _, g := range m.groups {
		if g.reasoningType == reasoningType {
			return g.group
		}
	}
	g := &Group{
		Scenarios: []Response{},
		Summary:   analysis.NewAggregator(provider, model, reasoningType).Result(),
	}
	m.groups = append(m.groups, &groupNode{reasoningType: reasoningType, group: g})
	return g
}

// Lookup returns an existing group without creating it.
func (l *Ledger) Lookup(provider, model, reasoningType string) (*Group, bool) {
	var found *Group
	l.Walk(func(p, m, rt string, g *Group) {
		if p == provider && m == model && rt == reasoningType {
			found = g
		}
	})
	return found, found != nil
}

// Walk visits every group in ledger order.
func (l *Ledger) Walk(fn func(provider, model, reasoningType string, g *Group)) {
	for _, p := range l.providers {
		for _, m := range p.models {
			for _, g := range m.groups {
				fn(p.name, m.name, g.reasoningType, g.group)
			}
		}
	}
}

func (l *Ledger) Providers() []string {
	out := make([]string, 0, len(l.providers))
	for _, p := range l.providers {
		out = append(out, p.name)
	}
	return out
}

// Len is the number of responses across all groups.
func (l *Ledger) Len() int {
	n := 0
	l.Walk(func(_, _, _ string, g *Group) { n += len(g.Scenarios) })
	return n
}

// Merge appends the groups of other after the ones already present.
func (l *Ledger) Merge(other *Ledger) {
	if other == nil {
		return
	}
	other.Walk(func(p, m, rt string, g *Group) {
		dst := l.Group(p, m, rt)
		dst.Scenarios = append(dst.Scenarios, g.Scenarios...)
		dst.Resummarize()
	})
}

// RemoveScenario drops every response for scenarioID and recomputes the
// affected summaries. It returns the number of responses removed.
func (l *Ledger) RemoveScenario(scenarioID int) int {
	removed := 0
	l.Walk(func(_, _, _ string, g *Group) {
		kept := g.Scenarios[:0]
		for _, r := range g.Scenarios {
			if r.ScenarioID == scenarioID {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) != len(g.Scenarios) {
			g.Scenarios = kept
			g.Resummarize()
		}
	})
	return removed
}

func (l *Ledger) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range l.providers {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeKey(&buf, p.name)
		buf.WriteByte('{')
		for j, m := range p.models {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeKey(&buf, m.name)
			buf.WriteByte('{')
			for k, g := range m.groups {
				if k > 0 {
					buf.WriteByte(',')
				}
				writeKey(&buf, g.reasoningType)
				b, err := json.Marshal(g.group)
				if err != nil {
					return nil, fmt.Errorf("marshal %s/%s/%s: %w", p.name, m.name, g.reasoningType, err)
				}
				buf.Write(b)
			}
			buf.WriteByte('}')
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, k string) {
	b, _ := json.Marshal(k)
	buf.Write(b)
	buf.WriteByte(':')
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	out := New()
	err := eachField(data, func(provider string, raw json.RawMessage) error {
		return eachField(raw, func(model string, raw json.RawMessage) error {
			return eachField(raw, func(rt string, raw json.RawMessage) error {
				var g Group
				if err := json.Unmarshal(raw, &g); err != nil {
					return fmt.Errorf("%s/%s/%s: %w", provider, model, rt, err)
				}
				dst := out.Group(provider, model, rt)
				dst.Scenarios = g.Scenarios
				if dst.Scenarios == nil {
					dst.Scenarios = []Response{}
				}
				for i := range dst.Scenarios {
					dst.Scenarios[i].Provider = provider
					dst.Scenarios[i].Model = model
					dst.Scenarios[i].ReasoningType = rt
				}
				dst.Summary = g.Summary
				dst.Summary.Provider, dst.Summary.Model, dst.Summary.ReasoningType = provider, model, rt
				if dst.Summary.Decisions == nil {
					dst.Summary.Decisions = map[analysis.Decision]int{}
				}
				return nil
			})
		})
	})
	if err != nil {
		return err
	}
	*l = *out
	return nil
}

// eachField calls fn for every member of a JSON object, in document order.
func eachField(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("ledger: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("ledger: expected key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
