// Package recommender is the single entry point to the recipe similarity
// engine. It owns the active snapshot, swaps it atomically on reload and
// applies the configured query defaults.
package recommender

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"recipe-recommender/internal/core/corpus"
	"recipe-recommender/internal/core/resolver"
	"recipe-recommender/internal/core/similarity"
	"recipe-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// Observer receives build and query events, typically a metrics collector.
type Observer interface {
	SnapshotSwapped(stats SnapshotStats)
	ReloadFailed(err error)
	QueryServed(op string, outcome string, d time.Duration)
}

var errNoSource = errors.New("recommender has no corpus source")

type nopObserver struct{}

func (nopObserver) SnapshotSwapped(SnapshotStats)             {}
func (nopObserver) ReloadFailed(error)                        {}
func (nopObserver) QueryServed(string, string, time.Duration) {}

// Query outcomes reported to the Observer.
const (
	OutcomeFound       = "found"
	OutcomeSuggestions = "suggestions"
	OutcomeEmpty       = "empty"
	OutcomeInvalid     = "invalid"
)

// Option 建立 Recommender 的選項
type Option func(*Recommender)

// WithObserver 設定事件觀察者
func WithObserver(o Observer) Option {
	return func(r *Recommender) {
		if o != nil {
			r.observer = o
		}
	}
}

// Recommender 推薦服務門面
type Recommender struct {
	source   Source
	opts     Options
	observer Observer

	snapshot atomic.Pointer[Snapshot]
	defaults atomic.Pointer[Defaults]

	// serializes builds; queries never take it
	buildMu sync.Mutex
}

// New builds the first snapshot from src. A corpus load failure is returned
// and no Recommender is created.
func New(ctx context.Context, src Source, opts Options, options ...Option) (*Recommender, error) {
	r := &Recommender{source: src, opts: opts, observer: nopObserver{}}
	for _, o := range options {
		o(r)
	}

	d := Defaults{TopK: opts.TopK, Method: opts.Method}
	if d.TopK == 0 {
		d.TopK = DefaultTopK
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	r.defaults.Store(&d)

	snap, err := BuildSnapshot(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	r.swap(snap)
	return r, nil
}

// NewFromSnapshot 以既有快照建立，不保留資料來源，無法 Reload
func NewFromSnapshot(snap *Snapshot, defaults Defaults, options ...Option) (*Recommender, error) {
	if err := defaults.validate(); err != nil {
		return nil, err
	}
	r := &Recommender{observer: nopObserver{}}
	for _, o := range options {
		o(r)
	}
	r.defaults.Store(&defaults)
	r.swap(snap)
	return r, nil
}

func (r *Recommender) swap(snap *Snapshot) {
	prev := r.snapshot.Swap(snap)
	fields := []zap.Field{zap.String("snapshot", common.ShortID(snap.ID))}
	if prev != nil {
		fields = append(fields, zap.String("previous", common.ShortID(prev.ID)))
	}
	common.LogInfo("Recommender snapshot swapped", fields...)
	r.observer.SnapshotSwapped(snap.Stats)
}

// Snapshot 目前生效的快照
func (r *Recommender) Snapshot() *Snapshot {
	return r.snapshot.Load()
}

// Configure 更新查詢預設值
func (r *Recommender) Configure(topK int, method similarity.Method) error {
	d := Defaults{TopK: topK, Method: method}
	if err := d.validate(); err != nil {
		return err
	}
	r.defaults.Store(&d)
	common.LogInfo("Recommender defaults updated",
		zap.Int("top_k", topK),
		zap.String("method", method.String()),
	)
	return nil
}

// Defaults 目前的查詢預設值
func (r *Recommender) Defaults() Defaults {
	return *r.defaults.Load()
}

// Reload rebuilds the snapshot from the source and swaps it in. On failure
// the active snapshot stays in place.
func (r *Recommender) Reload(ctx context.Context) (*Snapshot, error) {
	if r.source == nil {
		return nil, common.ErrServiceUnavailable.WithError(errNoSource)
	}

	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	snap, err := BuildSnapshot(ctx, r.source, r.opts)
	if err != nil {
		common.LogError("Corpus reload failed, keeping active snapshot",
			zap.String("snapshot", common.ShortID(r.Snapshot().ID)),
			zap.Error(err),
		)
		r.observer.ReloadFailed(err)
		return nil, err
	}
	r.swap(snap)
	return snap, nil
}

// Resolve 將名稱解析為食譜 id 或候選清單
func (r *Recommender) Resolve(query string) resolver.Result {
	start := time.Now()
	res := r.Snapshot().Resolver.Resolve(query)
	r.observer.QueryServed("resolve", resolveOutcome(res), time.Since(start))
	return res
}

// Recommendation 單一食譜的推薦結果
type Recommendation struct {
	SnapshotID      string                      `json:"snapshot_id"`
	RecipeID        int64                       `json:"recipe_id"`
	TopK            int                         `json:"top_k"`
	Method          similarity.Method           `json:"method"`
	Recommendations []similarity.NeighborRecord `json:"recommendations"`
}

// Recommend ranks the neighbors of id. An id outside the graph gives an
// empty list; only invalid overrides return an error.
func (r *Recommender) Recommend(id int64, q QueryOptions) (Recommendation, error) {
	start := time.Now()
	d, err := q.resolve(r.Defaults())
	if err != nil {
		r.observer.QueryServed("recommend", OutcomeInvalid, time.Since(start))
		return Recommendation{}, err
	}

	snap := r.Snapshot()
	recs := snap.Engine.Recommend(id, d.TopK, d.Method)
	outcome := OutcomeFound
	if len(recs) == 0 {
		outcome = OutcomeEmpty
	}
	r.observer.QueryServed("recommend", outcome, time.Since(start))

	return Recommendation{
		SnapshotID:      snap.ID,
		RecipeID:        id,
		TopK:            d.TopK,
		Method:          d.Method,
		Recommendations: recs,
	}, nil
}

// QueryResult is either a resolved recipe with its recommendations or a
// suggestion list for an unresolved name.
type QueryResult struct {
	SnapshotID      string                      `json:"snapshot_id"`
	Query           string                      `json:"query"`
	Found           bool                        `json:"found"`
	Recipe          *RecipeDetail               `json:"recipe,omitempty"`
	TopK            int                         `json:"top_k"`
	Method          similarity.Method           `json:"method"`
	Recommendations []similarity.NeighborRecord `json:"recommendations,omitempty"`
	Suggestions     []resolver.Suggestion       `json:"suggestions,omitempty"`
}

// Query accepts a recipe name or a numeric id. A numeric input that is a
// graph node is taken as an id; anything else goes through name resolution.
// The whole query runs against one snapshot.
func (r *Recommender) Query(nameOrID string, q QueryOptions) (QueryResult, error) {
	start := time.Now()
	d, err := q.resolve(r.Defaults())
	if err != nil {
		r.observer.QueryServed("query", OutcomeInvalid, time.Since(start))
		return QueryResult{}, err
	}

	snap := r.Snapshot()
	out := QueryResult{SnapshotID: snap.ID, Query: nameOrID, TopK: d.TopK, Method: d.Method}

	// an exact name beats a numeric id
	id, ok := snap.Resolver.Index().Lookup(nameOrID)
	if !ok {
		id, ok = parseNodeID(snap, nameOrID)
	}
	if !ok {
		res := snap.Resolver.Resolve(nameOrID)
		if !res.Found {
			out.Suggestions = res.Suggestions
			r.observer.QueryServed("query", resolveOutcome(res), time.Since(start))
			return out, nil
		}
		id = res.ID
	}

	detail, _ := recipeDetail(snap, id)
	out.Found = true
	out.Recipe = &detail
	out.Recommendations = snap.Engine.Recommend(id, d.TopK, d.Method)
	r.observer.QueryServed("query", OutcomeFound, time.Since(start))

	common.LogDebug("Query served",
		zap.String("query", nameOrID),
		zap.Int64("recipe_id", id),
		zap.Int("results", len(out.Recommendations)),
		zap.String("method", d.Method.String()),
	)
	return out, nil
}

func parseNodeID(snap *Snapshot, s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || !snap.Graph().HasNode(id) {
		return 0, false
	}
	return id, true
}

func resolveOutcome(res resolver.Result) string {
	switch {
	case res.Found:
		return OutcomeFound
	case len(res.Suggestions) > 0:
		return OutcomeSuggestions
	default:
		return OutcomeEmpty
	}
}

// RecipeDetail 食譜完整資料與評分
type RecipeDetail struct {
	corpus.Recipe
	Rating      *float64 `json:"rating"`
	RatingCount int      `json:"rating_count"`
	Degree      int      `json:"neighbors"`
}

// Recipe 依 id 取得食譜，只回傳圖中的食譜
func (r *Recommender) Recipe(id int64) (RecipeDetail, bool) {
	return recipeDetail(r.Snapshot(), id)
}

func recipeDetail(snap *Snapshot, id int64) (RecipeDetail, bool) {
	if !snap.Graph().HasNode(id) {
		return RecipeDetail{}, false
	}
	rec, ok := snap.Engine.Recipe(id)
	if !ok {
		return RecipeDetail{}, false
	}
	detail := RecipeDetail{Recipe: *rec, Degree: snap.Graph().Degree(id)}
	if rating, ok := snap.Engine.Ratings().Get(id); ok {
		mean := rating.Mean
		detail.Rating = &mean
		detail.RatingCount = rating.Count
	}
	return detail, true
}

// Stats 目前快照的摘要
type Stats struct {
	SnapshotID          string        `json:"snapshot_id"`
	BuiltAt             time.Time     `json:"built_at"`
	Nodes               int           `json:"nodes"`
	Edges               int           `json:"edges"`
	DistinctIngredients int           `json:"distinct_ingredients"`
	MinSharedIngredient int           `json:"min_shared_ingredients"`
	RatedRecipes        int           `json:"rated_recipes"`
	MeanRating          *float64      `json:"mean_rating"`
	Defaults            Defaults      `json:"defaults"`
	Build               SnapshotStats `json:"build"`
}

// Stats 目前快照統計
func (r *Recommender) Stats() Stats {
	snap := r.Snapshot()
	g := snap.Graph()
	s := Stats{
		SnapshotID:          snap.ID,
		BuiltAt:             snap.BuiltAt,
		Nodes:               g.NodeCount(),
		Edges:               g.EdgeCount(),
		DistinctIngredients: g.DistinctIngredients(),
		MinSharedIngredient: g.Threshold(),
		RatedRecipes:        snap.Engine.Ratings().Len(),
		Defaults:            r.Defaults(),
		Build:               snap.Stats,
	}
	if mean, ok := snap.Engine.Ratings().MeanOfMeans(); ok {
		s.MeanRating = &mean
	}
	return s
}
