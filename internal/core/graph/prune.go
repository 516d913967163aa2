package graph

import (
	"slices"
	"sort"

	"recipe-recommender/internal/core/corpus"
	"recipe-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// PruneCommonIngredients removes the top fraction of distinct ingredients by
// recipe frequency. The number removed is floor(distinct * fraction); ties
// are broken by ingredient name so the result is reproducible. Recipes left
// without ingredients are dropped. The input slice is not modified.
func PruneCommonIngredients(recipes []corpus.Recipe, fraction float64) ([]corpus.Recipe, []string) {
	freq := make(map[string]int)
	for _, r := range recipes {
		for _, ing := range sortedSet(r.Ingredients) {
			freq[ing]++
		}
	}

	n := int(float64(len(freq)) * fraction)
	if n <= 0 {
		return recipes, nil
	}

	ranked := make([]string, 0, len(freq))
	for ing := range freq {
		ranked = append(ranked, ing)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if freq[ranked[i]] != freq[ranked[j]] {
			return freq[ranked[i]] > freq[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	removed := ranked[:n]

	drop := make(map[string]struct{}, n)
	for _, ing := range removed {
		drop[ing] = struct{}{}
	}

	out := make([]corpus.Recipe, 0, len(recipes))
	for _, r := range recipes {
		kept := make([]string, 0, len(r.Ingredients))
		for _, ing := range r.Ingredients {
			if _, ok := drop[ing]; !ok {
				kept = append(kept, ing)
			}
		}
		if len(kept) == 0 {
			continue
		}
		r.Ingredients = kept
		out = append(out, r)
	}

	common.LogInfo("Removed common ingredients",
		zap.Int("count", len(removed)),
		zap.Strings("ingredients", removed[:min(len(removed), 20)]),
		zap.Int("recipes_dropped", len(recipes)-len(out)),
	)

	return out, slices.Clone(removed)
}
