// Package analysis classifies model responses with keyword heuristics and
// aggregates the results.
package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

type Decision string

const (
	Left    Decision = "left"
	Right   Decision = "right"
	Neither Decision = "neither"
	Unclear Decision = "unclear"
)

type Framework string

const (
	Utilitarian   Framework = "utilitarian"
	Deontological Framework = "deontological"
	VirtueEthics  Framework = "virtue_ethics"
	CareEthics    Framework = "care_ethics"
	RightsBased   Framework = "rights_based"
	JusticeBased  Framework = "justice_based"
	Other         Framework = "other"
)

type Analysis struct {
	WordCount                 int       `json:"word_count"`
	CharCount                 int       `json:"char_count"`
	ReasoningSteps            int       `json:"reasoning_steps"`
	ContainsEthicalPrinciples bool      `json:"contains_ethical_principles"`
	EthicalPrinciples         []string  `json:"ethical_principles"`
	ContainsUncertainty       bool      `json:"contains_uncertainty"`
	DecisionMade              bool      `json:"decision_made"`
	Decision                  Decision  `json:"decision"`
	EthicalFramework          Framework `json:"ethical_framework"`
}

var stepWords = regexp.MustCompile(`First|Second|Third|Finally|Moreover|Furthermore|Additionally`)

var (
	principleTerms   = []string{"utilitarian", "deontolog", "virtue ethics", "kantian", "consequential"}
	uncertaintyTerms = []string{"difficult", "complex", "uncertain", "not clear", "dilemma", "trade-off", "tradeoff"}
	decisionTerms    = []string{"i would choose", "should save", "best option", "optimal choice", "decision is"}
	neitherTerms     = []string{"can't decide", "cannot decide", "neither"}
)

// frameworks is checked in order; the first framework with a matching
// keyword labels the response.
var frameworks = []struct {
	name     Framework
	keywords []string
}{
	{Utilitarian, []string{"utility", "greatest good", "happiness", "consequences", "benefit", "harm"}},
	{Deontological, []string{"duty", "right", "wrong", "rule", "principle", "obligation", "categorical imperative"}},
	{VirtueEthics, []string{"virtue", "character", "excellence", "moral", "integrity", "wisdom"}},
	{CareEthics, []string{"care", "relationship", "compassion", "empathy", "connection"}},
	{RightsBased, []string{"rights", "freedom", "liberty", "autonomy", "dignity"}},
	{JusticeBased, []string{"justice", "fairness", "equality", "equity", "distribution"}},
}

// Analyze never fails; empty input yields zero counts and an unclear decision.
func Analyze(text string) Analysis {
	lower := strings.ToLower(text)

	principles := []string{}
	for _, t := range principleTerms {
		if strings.Contains(lower, t) {
			principles = append(principles, t)
		}
	}

	return Analysis{
		WordCount:                 len(strings.Fields(text)),
		CharCount:                 utf8.RuneCountInString(text),
		ReasoningSteps:            len(stepWords.FindAllStringIndex(text, -1)),
		ContainsEthicalPrinciples: len(principles) > 0,
		EthicalPrinciples:         principles,
		ContainsUncertainty:       containsAny(lower, uncertaintyTerms),
		DecisionMade:              containsAny(lower, decisionTerms),
		Decision:                  classifyDecision(lower),
		EthicalFramework:          classifyFramework(lower),
	}
}

func classifyDecision(lower string) Decision {
	left := strings.Contains(lower, "left")
	right := strings.Contains(lower, "right")
	switch {
	case left && !right:
		return Left
	case right && !left:
		return Right
	case containsAny(lower, neitherTerms):
		return Neither
	}
	return Unclear
}

func classifyFramework(lower string) Framework {
	for _, f := range frameworks {
		if containsAny(lower, f.keywords) {
			return f.name
		}
	}
	return Other
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
