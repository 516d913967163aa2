// Package similarity ranks a recipe's graph neighbors under the selectable
// scoring methods.
package similarity

import (
	"sort"

	"recipe-recommender/internal/core/corpus"
	"recipe-recommender/internal/core/graph"
)

// NeighborRecord carries everything a presentation layer needs for one
// recommended recipe.
type NeighborRecord struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Score             float64  `json:"similarity_score"`
	Weight            int      `json:"shared_count"`
	Ingredients       []string `json:"ingredients"`
	SharedIngredients []string `json:"shared_ingredients"`
	Rating            *float64 `json:"rating"`
	RatingCount       int      `json:"rating_count"`
	Instructions      []string `json:"instructions"`
	Minutes           int      `json:"minutes"`
	Description       string   `json:"description"`
}

// Engine 相似度引擎，建立後唯讀
type Engine struct {
	graph   *graph.Graph
	recipes map[int64]*corpus.Recipe
	ratings *corpus.RatingTable
}

// NewEngine indexes recipes by id. Recipes that are not graph nodes are kept
// for detail lookups but are never ranked.
func NewEngine(g *graph.Graph, recipes []corpus.Recipe, ratings *corpus.RatingTable) *Engine {
	byID := make(map[int64]*corpus.Recipe, len(recipes))
	for i := range recipes {
		if _, dup := byID[recipes[i].ID]; dup {
			continue
		}
		byID[recipes[i].ID] = &recipes[i]
	}
	return &Engine{graph: g, recipes: byID, ratings: ratings}
}

// Graph 底層圖
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// Ratings 評分表
func (e *Engine) Ratings() *corpus.RatingTable {
	return e.ratings
}

// Recipe 依 id 取得食譜
func (e *Engine) Recipe(id int64) (*corpus.Recipe, bool) {
	r, ok := e.recipes[id]
	return r, ok
}

// Score returns the method's score for the edge (id, neighbor); ok is false
// when the edge does not exist.
func (e *Engine) Score(method Method, id, neighbor int64) (float64, bool) {
	w, ok := e.graph.Weight(id, neighbor)
	if !ok {
		return 0, false
	}
	return method.Score(e.inputs(neighbor, w)), true
}

func (e *Engine) inputs(neighbor int64, weight int) Inputs {
	in := Inputs{Weight: weight, NeighborIngredients: e.graph.IngredientCount(neighbor)}
	if r, ok := e.ratings.Get(neighbor); ok {
		in.Rating = r.Mean
		in.Rated = true
	}
	return in
}

type candidate struct {
	id     int64
	weight int
	score  float64
	rating float64
	rated  bool
	name   string
}

// Recommend ranks every neighbor of id and returns at most topK records,
// ordered by score descending, then rating descending (unrated last), then
// name and id ascending. An id outside the graph yields an empty list.
func (e *Engine) Recommend(id int64, topK int, method Method) []NeighborRecord {
	out := []NeighborRecord{}
	if topK <= 0 || !method.Valid() || !e.graph.HasNode(id) {
		return out
	}

	edges := e.graph.Neighbors(id)
	cands := make([]candidate, 0, len(edges))
	for _, edge := range edges {
		in := e.inputs(edge.Neighbor, edge.Weight)
		c := candidate{
			id:     edge.Neighbor,
			weight: edge.Weight,
			score:  method.Score(in),
			rating: in.Rating,
			rated:  in.Rated,
		}
		if r, ok := e.recipes[edge.Neighbor]; ok {
			c.name = r.Name
		}
		cands = append(cands, c)
	}

	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.rated != b.rated {
			return a.rated
		}
		if a.rating != b.rating {
			return a.rating > b.rating
		}
		if a.name != b.name {
			return a.name < b.name
		}
		return a.id < b.id
	})
	if len(cands) > topK {
		cands = cands[:topK]
	}

	for _, c := range cands {
		out = append(out, e.record(id, c))
	}
	return out
}

func (e *Engine) record(query int64, c candidate) NeighborRecord {
	rec := NeighborRecord{
		ID:                c.id,
		Name:              c.name,
		Score:             c.score,
		Weight:            c.weight,
		Ingredients:       e.graph.Ingredients(c.id),
		SharedIngredients: e.graph.SharedIngredients(query, c.id),
		Instructions:      []string{},
		Description:       corpus.DefaultDescription,
	}
	if r, ok := e.recipes[c.id]; ok {
		rec.Ingredients = append([]string(nil), r.Ingredients...)
		if r.Steps != nil {
			rec.Instructions = append([]string{}, r.Steps...)
		}
		rec.Minutes = r.Minutes
		rec.Description = r.Description
	}
	if r, ok := e.ratings.Get(c.id); ok {
		mean := r.Mean
		rec.Rating = &mean
		rec.RatingCount = r.Count
	}
	return rec
}
