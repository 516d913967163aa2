package graph

import (
	"testing"

	"recipe-recommender/internal/core/corpus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recipe(id int64, name string, ingredients ...string) corpus.Recipe {
	return corpus.Recipe{ID: id, Name: name, Ingredients: ingredients}
}

func triangle() []corpus.Recipe {
	return []corpus.Recipe{
		recipe(1, "P1", "a", "b", "c"),
		recipe(2, "P2", "b", "c", "d"),
		recipe(3, "P3", "c", "d", "e"),
	}
}

func TestBuildThresholdOne(t *testing.T) {
	g, stats := NewBuilder(1, 0).Build(triangle())

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, 3, stats.Edges)

	w, ok := g.Weight(1, 2)
	require.True(t, ok)
	assert.Equal(t, 2, w)

	w, ok = g.Weight(2, 3)
	require.True(t, ok)
	assert.Equal(t, 2, w)

	w, ok = g.Weight(1, 3)
	require.True(t, ok)
	assert.Equal(t, 1, w)

	assert.Equal(t, []string{"b", "c"}, g.SharedIngredients(1, 2))
}

func TestBuildThresholdTwo(t *testing.T) {
	g := Build(triangle(), 2)

	assert.Equal(t, 2, g.EdgeCount())
	_, ok := g.Weight(1, 3)
	assert.False(t, ok)
	assert.Equal(t, []Edge{{Neighbor: 2, Weight: 2}}, g.Neighbors(1))
	assert.Equal(t, []Edge{{Neighbor: 1, Weight: 2}, {Neighbor: 3, Weight: 2}}, g.Neighbors(2))
}

func TestBuildDefaultThresholdIsolatesNodes(t *testing.T) {
	g := Build(triangle(), 0)

	assert.Equal(t, 3, g.Threshold())
	assert.Equal(t, 3, g.NodeCount())
	assert.Zero(t, g.EdgeCount())
	assert.True(t, g.HasNode(1))
	assert.Empty(t, g.Neighbors(1))
}

func TestBuildSkipsRecipesWithoutIngredients(t *testing.T) {
	recipes := append(triangle(), recipe(4, "empty"))
	g, stats := NewBuilder(1, 0).Build(recipes)

	assert.False(t, g.HasNode(4))
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, []int64{1, 2, 3}, g.Nodes())
}

func overlap(a, b corpus.Recipe) int {
	seen := make(map[string]bool, len(a.Ingredients))
	for _, ing := range a.Ingredients {
		seen[ing] = true
	}
	n := 0
	for _, ing := range b.Ingredients {
		if seen[ing] {
			n++
			delete(seen, ing)
		}
	}
	return n
}

func TestBuildEdgesMatchOverlapThreshold(t *testing.T) {
	recipes := []corpus.Recipe{
		recipe(10, "x", "salt", "egg", "flour", "milk"),
		recipe(11, "y", "salt", "egg", "flour", "sugar"),
		recipe(12, "z", "salt", "sugar", "butter"),
		recipe(13, "w", "egg", "milk", "butter", "flour"),
		recipe(14, "v", "tofu"),
	}

	for _, threshold := range []int{1, 2, 3} {
		g := Build(recipes, threshold)
		edges := 0
		for i, a := range recipes {
			_, self := g.Weight(a.ID, a.ID)
			assert.False(t, self, "self loop on %d", a.ID)

			for _, b := range recipes[i+1:] {
				want := overlap(a, b)
				w, ok := g.Weight(a.ID, b.ID)
				back, okBack := g.Weight(b.ID, a.ID)
				assert.Equal(t, ok, okBack, "asymmetric %d-%d", a.ID, b.ID)
				assert.Equal(t, want >= threshold, ok, "threshold %d pair %d-%d overlap %d", threshold, a.ID, b.ID, want)
				if ok {
					edges++
					assert.Equal(t, want, w)
					assert.Equal(t, want, back)
				}
			}
		}
		assert.Equal(t, edges, g.EdgeCount(), "threshold %d", threshold)
		assert.Zero(t, g.Degree(14))
	}
}

func TestBuildDuplicateIngredientsCountOnce(t *testing.T) {
	recipes := []corpus.Recipe{
		recipe(1, "a", "egg", "egg", "milk"),
		recipe(2, "b", "egg", "milk"),
	}
	g := Build(recipes, 1)

	w, ok := g.Weight(1, 2)
	require.True(t, ok)
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, g.IngredientCount(1))
}

func TestBuildStatsCandidatePairs(t *testing.T) {
	_, stats := NewBuilder(1, 0).Build(triangle())

	// b:{1,2} c:{1,2,3} d:{2,3}
	assert.Equal(t, 1+3+1, stats.CandidatePairs)
	assert.Equal(t, 3, stats.LargestBucket)
	assert.Equal(t, 5, stats.Ingredients)
}

func TestPruneCommonIngredients(t *testing.T) {
	recipes := []corpus.Recipe{
		recipe(1, "a", "salt", "egg"),
		recipe(2, "b", "salt", "milk"),
		recipe(3, "c", "salt", "egg", "flour"),
		recipe(4, "d", "salt"),
	}

	out, removed := PruneCommonIngredients(recipes, 0.25)
	assert.Equal(t, []string{"salt"}, removed)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"egg"}, out[0].Ingredients)

	// input untouched
	assert.Equal(t, []string{"salt", "egg"}, recipes[0].Ingredients)

	out, removed = PruneCommonIngredients(recipes, 0.1)
	assert.Nil(t, removed)
	assert.Len(t, out, 4)
}

func TestPruneTieBreakByName(t *testing.T) {
	recipes := []corpus.Recipe{
		recipe(1, "a", "b", "a", "z"),
		recipe(2, "b", "b", "a"),
	}
	_, removed := PruneCommonIngredients(recipes, 0.34)
	assert.Equal(t, []string{"a"}, removed)
}

func TestBuilderWithPruning(t *testing.T) {
	recipes := []corpus.Recipe{
		recipe(1, "a", "salt", "egg", "milk"),
		recipe(2, "b", "salt", "egg", "milk"),
		recipe(3, "c", "salt", "tofu"),
		recipe(4, "d", "salt"),
		recipe(5, "e"),
	}
	g, stats := NewBuilder(1, 0.25).Build(recipes)

	assert.Equal(t, []string{"salt"}, g.PrunedIngredients())
	assert.Equal(t, 1, stats.Pruned)
	// 4 lost its only ingredient, 5 never had one
	assert.Equal(t, 2, stats.Dropped)
	assert.False(t, g.HasNode(4))
	assert.Equal(t, []int64{1, 2, 3}, g.Nodes())
	assert.Equal(t, 1, g.EdgeCount())
	_, ok := g.Weight(1, 3)
	assert.False(t, ok)
	assert.Empty(t, g.RecipesWithIngredient("salt"))
	assert.Equal(t, []int64{1, 2}, g.RecipesWithIngredient("egg"))
}
