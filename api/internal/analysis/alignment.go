package analysis

import (
	"github.com/montanaflynn/stats"
)

// Observation is one analyzed, non-errored response with its grouping keys.
type Observation struct {
	Provider      string
	Model         string
	ReasoningType string
	ScenarioID    int
	Analysis      Analysis
}

// Alignment is the ethical-framework breakdown of a set of observations.
// Grouped keys join their parts with "_".
type Alignment struct {
	FrameworkDistribution          map[Framework]int              `json:"framework_distribution"`
	ProviderFrameworkDistribution  map[string]int                 `json:"provider_framework_distribution"`
	ReasoningFrameworkDistribution map[string]int                 `json:"reasoning_framework_distribution"`
	FrameworkDecisionCorrelation   map[Decision]map[Framework]int `json:"framework_decision_correlation"`
	AverageReasoningSteps          map[Framework]float64          `json:"average_reasoning_steps"`
}

func NewAlignment(obs []Observation) Alignment {
	a := Alignment{
		FrameworkDistribution:          map[Framework]int{},
		ProviderFrameworkDistribution:  map[string]int{},
		ReasoningFrameworkDistribution: map[string]int{},
		FrameworkDecisionCorrelation:   map[Decision]map[Framework]int{},
		AverageReasoningSteps:          map[Framework]float64{},
	}
	steps := map[Framework][]float64{}
	for _, o := range obs {
		f := o.Analysis.EthicalFramework
		if f == "" {
			f = Other
		}
		a.FrameworkDistribution[f]++
		a.ProviderFrameworkDistribution[o.Provider+"_"+string(f)]++
		a.ReasoningFrameworkDistribution[o.ReasoningType+"_"+string(f)]++

		d := o.Analysis.Decision
		if a.FrameworkDecisionCorrelation[d] == nil {
			a.FrameworkDecisionCorrelation[d] = map[Framework]int{}
		}
		a.FrameworkDecisionCorrelation[d][f]++
		steps[f] = append(steps[f], float64(o.Analysis.ReasoningSteps))
	}
	for f, xs := range steps {
		a.AverageReasoningSteps[f] = mean(xs)
	}
	return a
}

// Describe holds descriptive statistics for one numeric column.
type Describe struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

func describe(xs []float64) Describe {
	if len(xs) == 0 {
		return Describe{}
	}
	d := Describe{Count: len(xs), Mean: mean(xs)}
	// sample standard deviation is undefined for one value
	if len(xs) > 1 {
		d.Std, _ = stats.StandardDeviationSample(xs)
	}
	d.Min, _ = stats.Min(xs)
	d.Median, _ = stats.Median(xs)
	d.Max, _ = stats.Max(xs)
	return d
}

// ColumnStats describes the numeric analysis columns of a group.
type ColumnStats struct {
	WordCount       Describe `json:"word_count"`
	ReasoningSteps  Describe `json:"reasoning_steps"`
	PrinciplesCount Describe `json:"ethical_principles_count"`
}

type columns struct{ words, steps, principles []float64 }

func (c *columns) add(a Analysis) {
	c.words = append(c.words, float64(a.WordCount))
	c.steps = append(c.steps, float64(a.ReasoningSteps))
	c.principles = append(c.principles, float64(len(a.EthicalPrinciples)))
}

func (c *columns) stats() ColumnStats {
	return ColumnStats{
		WordCount:       describe(c.words),
		ReasoningSteps:  describe(c.steps),
		PrinciplesCount: describe(c.principles),
	}
}

// Summary is the statistical summary of a set of observations.
type Summary struct {
	Overall              ColumnStats                            `json:"overall"`
	ByProvider           map[string]ColumnStats                 `json:"by_provider"`
	ByReasoningType      map[string]ColumnStats                 `json:"by_reasoning_type"`
	DecisionDistribution map[string]map[string]map[Decision]int `json:"decision_distribution"`
	EthicalPrinciples    map[string]map[string]float64          `json:"ethical_principles"`
}

func Summarize(obs []Observation) Summary {
	var overall columns
	byProvider := map[string]*columns{}
	byRT := map[string]*columns{}
	principles := map[string]map[string][]float64{}
	dec := map[string]map[string]map[Decision]int{}

	for _, o := range obs {
		overall.add(o.Analysis)
		if byProvider[o.Provider] == nil {
			byProvider[o.Provider] = &columns{}
		}
		byProvider[o.Provider].add(o.Analysis)
		if byRT[o.ReasoningType] == nil {
			byRT[o.ReasoningType] = &columns{}
		}
		byRT[o.ReasoningType].add(o.Analysis)

		if dec[o.Provider] == nil {
			dec[o.Provider] = map[string]map[Decision]int{}
			principles[o.Provider] = map[string][]float64{}
		}
		if dec[o.Provider][o.ReasoningType] == nil {
			dec[o.Provider][o.ReasoningType] = map[Decision]int{}
		}
		dec[o.Provider][o.ReasoningType][o.Analysis.Decision]++
		principles[o.Provider][o.ReasoningType] = append(principles[o.Provider][o.ReasoningType], float64(len(o.Analysis.EthicalPrinciples)))
	}

	s := Summary{
		Overall:              overall.stats(),
		ByProvider:           map[string]ColumnStats{},
		ByReasoningType:      map[string]ColumnStats{},
		DecisionDistribution: dec,
		EthicalPrinciples:    map[string]map[string]float64{},
	}
	for k, c := range byProvider {
		s.ByProvider[k] = c.stats()
	}
	for k, c := range byRT {
		s.ByReasoningType[k] = c.stats()
	}
	for p, rts := range principles {
		s.EthicalPrinciples[p] = map[string]float64{}
		for rt, xs := range rts {
			s.EthicalPrinciples[p][rt] = mean(xs)
		}
	}
	return s
}
