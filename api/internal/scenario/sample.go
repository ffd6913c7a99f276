package scenario

import (
	"math/rand"
	"slices"
)

// Categories returns the distinct categories in first-seen order.
func (s *Store) Categories() []string {
	var out []string
	for _, it := range s.items {
		if !slices.Contains(out, it.Category) {
			out = append(out, it.Category)
		}
	}
	return out
}

// Sample takes up to perCategory scenarios from every category, keeping only
// the listed categories when any are given. perCategory <= 0 keeps all.
// With a nil rng the first scenarios of each category are taken in catalog
// order; otherwise each category is shuffled with rng first.
func (s *Store) Sample(perCategory int, categories []string, rng *rand.Rand) []Scenario {
	var out []Scenario
	for _, cat := range s.Categories() {
		if len(categories) > 0 && !slices.Contains(categories, cat) {
			continue
		}
		var group []Scenario
		for _, it := range s.items {
			if it.Category == cat {
				group = append(group, it)
			}
		}
		if rng != nil {
			rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		}
		if perCategory > 0 && len(group) > perCategory {
			group = group[:perCategory]
		}
		out = append(out, group...)
	}
	return out
}
