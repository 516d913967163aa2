// Package resolver maps free-text recipe names to recipe ids. Exact lookups
// are case- and whitespace-insensitive; misses fall back to approximate
// matching against every indexed name.
package resolver

import (
	"fmt"
	"sort"
	"strings"

	"recipe-recommender/internal/core/corpus"
	"recipe-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// Defaults used when Options leaves a field unset.
const (
	DefaultMaxSuggestions = 5
	DefaultCutoff         = 0.6
)

// CollisionPolicy decides which recipe keeps a name shared by several recipes.
type CollisionPolicy string

const (
	FirstWins CollisionPolicy = "first"
	LastWins  CollisionPolicy = "last"
)

// ParseCollisionPolicy 解析名稱衝突策略
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case FirstWins, "":
		return FirstWins, nil
	case LastWins:
		return LastWins, nil
	default:
		return "", fmt.Errorf("unknown collision policy %q", s)
	}
}

// Key normalizes a name for exact lookup: lowercased, trimmed, inner
// whitespace runs collapsed to one space.
func Key(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

type entry struct {
	key  string
	name string
	id   int64
}

// NameIndex 名稱索引，建立後不可變更
type NameIndex struct {
	byKey      map[string]int
	entries    []entry
	collisions int
}

// NewNameIndex builds the index in corpus order. Names that normalize to an
// empty key are skipped.
func NewNameIndex(recipes []corpus.Recipe, policy CollisionPolicy) *NameIndex {
	idx := &NameIndex{
		byKey:   make(map[string]int, len(recipes)),
		entries: make([]entry, 0, len(recipes)),
	}
	for _, r := range recipes {
		key := Key(r.Name)
		if key == "" {
			continue
		}
		if pos, ok := idx.byKey[key]; ok {
			idx.collisions++
			if policy == LastWins {
				idx.entries[pos] = entry{key: key, name: r.Name, id: r.ID}
			}
			continue
		}
		idx.byKey[key] = len(idx.entries)
		idx.entries = append(idx.entries, entry{key: key, name: r.Name, id: r.ID})
	}

	if idx.collisions > 0 {
		common.LogWarn("Recipe name collisions resolved",
			zap.Int("collisions", idx.collisions),
			zap.String("policy", string(policy)),
		)
	}
	return idx
}

// Lookup 精確查詢
func (x *NameIndex) Lookup(name string) (int64, bool) {
	pos, ok := x.byKey[Key(name)]
	if !ok {
		return 0, false
	}
	return x.entries[pos].id, true
}

// Len 索引中的名稱數
func (x *NameIndex) Len() int {
	return len(x.entries)
}

// Collisions 建立索引時遇到的重複名稱數
func (x *NameIndex) Collisions() int {
	return x.collisions
}

// Suggestion 模糊比對候選
type Suggestion struct {
	Name  string  `json:"name"`
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

// Result is either a resolved id (Found) or a possibly empty suggestion list,
// never both.
type Result struct {
	ID          int64
	Found       bool
	Suggestions []Suggestion
}

// Names 候選名稱
func (r Result) Names() []string {
	names := make([]string, len(r.Suggestions))
	for i, s := range r.Suggestions {
		names[i] = s.Name
	}
	return names
}

// Options 解析器設定
type Options struct {
	MaxSuggestions int
	Cutoff         float64
	Metric         Metric
}

// Resolver 名稱解析器
type Resolver struct {
	index *NameIndex
	opts  Options
}

// New 建立 Resolver；Metric 為 nil 時使用 Levenshtein
func New(index *NameIndex, opts Options) *Resolver {
	if opts.Metric == nil {
		opts.Metric = Levenshtein{}
	}
	if opts.MaxSuggestions < 0 {
		opts.MaxSuggestions = 0
	}
	return &Resolver{index: index, opts: opts}
}

// Index 底層名稱索引
func (r *Resolver) Index() *NameIndex {
	return r.index
}

// Resolve 先精確比對，失敗再做模糊比對
func (r *Resolver) Resolve(query string) Result {
	if id, ok := r.index.Lookup(query); ok {
		return Result{ID: id, Found: true}
	}
	return Result{Suggestions: r.Suggest(query)}
}

// Suggest returns up to MaxSuggestions names scoring at least Cutoff,
// ordered by score descending, then name ascending.
func (r *Resolver) Suggest(query string) []Suggestion {
	out := []Suggestion{}
	key := Key(query)
	if key == "" || r.opts.MaxSuggestions == 0 {
		return out
	}

	for _, e := range r.index.entries {
		score := r.opts.Metric.Similarity(key, e.key)
		if score < r.opts.Cutoff {
			continue
		}
		out = append(out, Suggestion{Name: e.name, ID: e.id, Score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > r.opts.MaxSuggestions {
		out = out[:r.opts.MaxSuggestions]
	}

	common.LogDebug("Fuzzy name match",
		zap.String("query", key),
		zap.Int("suggestions", len(out)),
		zap.String("metric", r.opts.Metric.Name()),
	)
	return out
}
