// Package graph builds the ingredient co-occurrence graph over a recipe
// corpus. Nodes are recipe ids, and two recipes are joined by an edge whose
// weight is the number of ingredients they share, provided that number meets
// the configured threshold. A built Graph is immutable and safe for
// concurrent readers.
package graph

import (
	"slices"
	"sort"
)

// Edge is one adjacency entry.
type Edge struct {
	Neighbor int64 `json:"neighbor"`
	Weight   int   `json:"weight"`
}

// Graph 不可變的加權無向圖
type Graph struct {
	adj         map[int64][]Edge
	ingredients map[int64][]string
	index       map[string][]int64
	nodes       []int64
	edges       int
	threshold   int
	pruned      []string
}

// HasNode 食譜是否為圖中節點
func (g *Graph) HasNode(id int64) bool {
	_, ok := g.ingredients[id]
	return ok
}

// NodeCount 節點數
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount 邊數（無向，每條只算一次）
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Threshold 建圖時使用的最少共同食材數
func (g *Graph) Threshold() int {
	return g.threshold
}

// Nodes 依 id 排序的所有節點
func (g *Graph) Nodes() []int64 {
	return slices.Clone(g.nodes)
}

// Degree 節點的鄰居數
func (g *Graph) Degree(id int64) int {
	return len(g.adj[id])
}

// Neighbors returns a copy of id's adjacency list ordered by neighbor id.
func (g *Graph) Neighbors(id int64) []Edge {
	return slices.Clone(g.adj[id])
}

// Weight 回傳兩節點間的邊權重
func (g *Graph) Weight(a, b int64) (int, bool) {
	edges := g.adj[a]
	i := sort.Search(len(edges), func(i int) bool { return edges[i].Neighbor >= b })
	if i < len(edges) && edges[i].Neighbor == b {
		return edges[i].Weight, true
	}
	return 0, false
}

// Ingredients returns the sorted ingredient set the node was indexed with.
func (g *Graph) Ingredients(id int64) []string {
	return slices.Clone(g.ingredients[id])
}

// IngredientCount 節點的食材數
func (g *Graph) IngredientCount(id int64) int {
	return len(g.ingredients[id])
}

// SharedIngredients 兩節點共同食材，依字母排序
func (g *Graph) SharedIngredients(a, b int64) []string {
	return intersectSorted(g.ingredients[a], g.ingredients[b])
}

// DistinctIngredients 索引中的相異食材數
func (g *Graph) DistinctIngredients() int {
	return len(g.index)
}

// RecipesWithIngredient 含有該食材的食譜 id
func (g *Graph) RecipesWithIngredient(ingredient string) []int64 {
	return slices.Clone(g.index[ingredient])
}

// PrunedIngredients 建圖前被移除的高頻食材
func (g *Graph) PrunedIngredients() []string {
	return slices.Clone(g.pruned)
}

func intersectSorted(a, b []string) []string {
	out := []string{}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
