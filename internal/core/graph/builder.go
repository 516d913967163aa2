package graph

import (
	"slices"
	"sort"
	"time"

	"recipe-recommender/internal/core/corpus"
	"recipe-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// DefaultMinShared 預設最少共同食材數
const DefaultMinShared = 3

// Builder constructs a Graph from a recipe corpus.
//
// Build cost is driven by the sum over ingredients of C(n, 2), where n is the
// number of recipes containing that ingredient. A single ingredient found in
// most recipes (salt, butter) therefore dominates both runtime and the number
// of candidate pairs. PruneTopFraction removes the most frequent fraction of
// distinct ingredients before indexing; it is off by default, and when set
// the pruned list is deterministic (frequency desc, then name asc) and is
// reported on the built graph.
type Builder struct {
	MinShared        int
	PruneTopFraction float64
}

// BuildStats 建圖統計
type BuildStats struct {
	Recipes        int           `json:"recipes"`
	Nodes          int           `json:"nodes"`
	Edges          int           `json:"edges"`
	Ingredients    int           `json:"ingredients"`
	CandidatePairs int           `json:"candidate_pairs"`
	LargestBucket  int           `json:"largest_bucket"`
	Pruned         int           `json:"pruned_ingredients"`
	Dropped        int           `json:"dropped_recipes"`
	Duration       time.Duration `json:"duration"`
}

type pair struct {
	a, b int64
}

// NewBuilder 建立 Builder，minShared < 1 時使用預設值
func NewBuilder(minShared int, pruneTopFraction float64) *Builder {
	if minShared < 1 {
		minShared = DefaultMinShared
	}
	return &Builder{MinShared: minShared, PruneTopFraction: pruneTopFraction}
}

// Build 建立相似度圖；沒有食材的食譜不會成為節點
func (b *Builder) Build(recipes []corpus.Recipe) (*Graph, BuildStats) {
	start := time.Now()
	threshold := b.MinShared
	if threshold < 1 {
		threshold = DefaultMinShared
	}
	stats := BuildStats{Recipes: len(recipes)}

	var pruned []string
	if b.PruneTopFraction > 0 {
		before := len(recipes)
		recipes, pruned = PruneCommonIngredients(recipes, b.PruneTopFraction)
		stats.Pruned = len(pruned)
		stats.Dropped += before - len(recipes)
	}

	g := &Graph{
		adj:         make(map[int64][]Edge),
		ingredients: make(map[int64][]string, len(recipes)),
		index:       make(map[string][]int64),
		threshold:   threshold,
		pruned:      pruned,
	}

	// 1. inverted index
	for _, r := range recipes {
		if !r.HasIngredients() {
			stats.Dropped++
			continue
		}
		if _, dup := g.ingredients[r.ID]; dup {
			stats.Dropped++
			continue
		}
		set := sortedSet(r.Ingredients)
		g.ingredients[r.ID] = set
		g.nodes = append(g.nodes, r.ID)
		for _, ing := range set {
			g.index[ing] = append(g.index[ing], r.ID)
		}
	}
	slices.Sort(g.nodes)

	// 2. shared counts per unordered pair
	counts := make(map[pair]int)
	for _, bucket := range g.index {
		slices.Sort(bucket)
		n := len(bucket)
		stats.LargestBucket = max(stats.LargestBucket, n)
		if n < 2 {
			continue
		}
		stats.CandidatePairs += n * (n - 1) / 2
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				counts[pair{bucket[i], bucket[j]}]++
			}
		}
	}

	// 3. threshold
	for p, w := range counts {
		if w < threshold {
			continue
		}
		g.adj[p.a] = append(g.adj[p.a], Edge{Neighbor: p.b, Weight: w})
		g.adj[p.b] = append(g.adj[p.b], Edge{Neighbor: p.a, Weight: w})
		g.edges++
	}
	for id := range g.adj {
		edges := g.adj[id]
		sort.Slice(edges, func(i, j int) bool { return edges[i].Neighbor < edges[j].Neighbor })
	}

	stats.Nodes = len(g.nodes)
	stats.Edges = g.edges
	stats.Ingredients = len(g.index)
	stats.Duration = time.Since(start)

	common.LogInfo("Similarity graph built",
		zap.Int("nodes", stats.Nodes),
		zap.Int("edges", stats.Edges),
		zap.Int("ingredients", stats.Ingredients),
		zap.Int("candidate_pairs", stats.CandidatePairs),
		zap.Int("largest_bucket", stats.LargestBucket),
		zap.Int("min_shared_ingredients", threshold),
		zap.Int("pruned_ingredients", stats.Pruned),
		zap.Duration("耗時", stats.Duration),
	)

	return g, stats
}

// Build 以預設 Builder 建圖
func Build(recipes []corpus.Recipe, minShared int) *Graph {
	g, _ := NewBuilder(minShared, 0).Build(recipes)
	return g
}

func sortedSet(values []string) []string {
	set := slices.Clone(values)
	slices.Sort(set)
	return slices.Compact(set)
}
