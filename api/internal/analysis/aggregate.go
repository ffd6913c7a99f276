package analysis

import (
	"github.com/montanaflynn/stats"
)

// Aggregate summarizes one (provider, model, reasoning type) group.
// Errored calls count toward Errored only.
type Aggregate struct {
	Provider      string           `json:"-"`
	Model         string           `json:"-"`
	ReasoningType string           `json:"-"`
	AvgWordCount  float64          `json:"avg_word_count"`
	AvgSteps      float64          `json:"avg_reasoning_steps"`
	Decisions     map[Decision]int `json:"decisions"`
	Succeeded     int              `json:"succeeded"`
	Errored       int              `json:"errored"`
}

// Aggregator accumulates analyses for a single group.
type Aggregator struct {
	provider, model, reasoningType string

	words     []float64
	steps     []float64
	decisions map[Decision]int
	errored   int
}

func NewAggregator(provider, model, reasoningType string) *Aggregator {
	return &Aggregator{
		provider:      provider,
		model:         model,
		reasoningType: reasoningType,
		decisions:     map[Decision]int{},
	}
}

func (g *Aggregator) Add(a Analysis) {
	g.words = append(g.words, float64(a.WordCount))
	g.steps = append(g.steps, float64(a.ReasoningSteps))
	g.decisions[a.Decision]++
}

func (g *Aggregator) AddError() { g.errored++ }

// Result returns the averages so far; an empty group averages to zero.
func (g *Aggregator) Result() Aggregate {
	decisions := make(map[Decision]int, len(g.decisions))
	for k, v := range g.decisions {
		decisions[k] = v
	}
	return Aggregate{
		Provider:      g.provider,
		Model:         g.model,
		ReasoningType: g.reasoningType,
		AvgWordCount:  mean(g.words),
		AvgSteps:      mean(g.steps),
		Decisions:     decisions,
		Succeeded:     len(g.words),
		Errored:       g.errored,
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m, err := stats.Mean(xs)
	if err != nil {
		return 0
	}
	return m
}
