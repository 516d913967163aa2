package recommender

import (
	"context"
	"fmt"
	"time"

	"recipe-recommender/internal/core/corpus"
	"recipe-recommender/internal/core/graph"
	"recipe-recommender/internal/core/resolver"
	"recipe-recommender/internal/core/similarity"
	"recipe-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// Source supplies decoded corpus rows. Implementations read files, remote
// objects or in-memory fixtures; the recommender never parses tabular data.
type Source interface {
	LoadRecipes(ctx context.Context) ([]corpus.RecipeRow, error)
	StreamRatings(ctx context.Context, fn func(corpus.RatingEvent)) error
}

// MemorySource 記憶體中的語料，供測試與 CLI 使用
type MemorySource struct {
	Recipes []corpus.RecipeRow
	Ratings []corpus.RatingEvent
}

func (s *MemorySource) LoadRecipes(ctx context.Context) ([]corpus.RecipeRow, error) {
	return s.Recipes, ctx.Err()
}

func (s *MemorySource) StreamRatings(ctx context.Context, fn func(corpus.RatingEvent)) error {
	for _, ev := range s.Ratings {
		fn(ev)
	}
	return ctx.Err()
}

// SnapshotStats 快照建置統計
type SnapshotStats struct {
	RowsLoaded        int                   `json:"rows_loaded"`
	RowsSampled       int                   `json:"rows_sampled"`
	Sampling          corpus.Sampling       `json:"sampling"`
	Normalize         corpus.NormalizeStats `json:"normalize"`
	Graph             graph.BuildStats      `json:"graph"`
	RatingEvents      int                   `json:"rating_events"`
	RatingsSkipped    int                   `json:"ratings_skipped"`
	RatedRecipes      int                   `json:"rated_recipes"`
	NameCollisions    int                   `json:"name_collisions"`
	IndexedNames      int                   `json:"indexed_names"`
	PrunedIngredients []string              `json:"pruned_ingredients,omitempty"`
	Duration          time.Duration         `json:"duration"`
}

// Snapshot is one immutable generation of graph, name index and ratings.
// Queries hold a pointer for their whole lifetime, so a reload never tears
// a read.
type Snapshot struct {
	ID       string
	BuiltAt  time.Time
	Engine   *similarity.Engine
	Resolver *resolver.Resolver
	Stats    SnapshotStats
}

// Graph 快照的相似度圖
func (s *Snapshot) Graph() *graph.Graph {
	return s.Engine.Graph()
}

// BuildSnapshot loads the corpus from src and builds a snapshot. Any load
// error aborts the build; nothing is built from a partial corpus.
func BuildSnapshot(ctx context.Context, src Source, opts Options) (*Snapshot, error) {
	if opts.BuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.BuildTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := src.LoadRecipes(ctx)
	if err != nil {
		return nil, common.ErrCorpusLoad.WithError(fmt.Errorf("load recipes: %w", err))
	}
	common.LogBuildStep("load_recipes", time.Since(start), zap.Int("rows", len(rows)))

	return buildFromRows(ctx, rows, func(agg *corpus.RatingAggregator) (int, error) {
		n := 0
		err := src.StreamRatings(ctx, func(ev corpus.RatingEvent) {
			n++
			agg.Add(ev)
		})
		if err != nil {
			return n, common.ErrCorpusLoad.WithError(fmt.Errorf("load ratings: %w", err))
		}
		return n, nil
	}, opts)
}

// BuildSnapshotFromRows 由已解碼的資料列建立快照
func BuildSnapshotFromRows(ctx context.Context, rows []corpus.RecipeRow, events []corpus.RatingEvent, opts Options) (*Snapshot, error) {
	return BuildSnapshot(ctx, &MemorySource{Recipes: rows, Ratings: events}, opts)
}

func buildFromRows(ctx context.Context, rows []corpus.RecipeRow, ratings func(*corpus.RatingAggregator) (int, error), opts Options) (*Snapshot, error) {
	start := time.Now()
	stats := SnapshotStats{RowsLoaded: len(rows), Sampling: opts.Sampling}

	// 1. 抽樣
	sampled := corpus.Sample(rows, opts.Limit, opts.Sampling, opts.Seed)
	stats.RowsSampled = len(sampled)

	// 2. 正規化
	step := time.Now()
	recipes, nstats, err := corpus.NormalizeRows(ctx, sampled, opts.NormalizeWorkers)
	if err != nil {
		return nil, fmt.Errorf("normalize recipes: %w", err)
	}
	stats.Normalize = nstats
	common.LogBuildStep("normalize", time.Since(step),
		zap.Int("kept", nstats.Kept),
		zap.Int("no_ingredients", nstats.NoIngredients),
		zap.Int("missing_name", nstats.MissingName),
	)

	// 3. 建圖
	g, gstats := graph.NewBuilder(opts.MinShared, opts.PruneTopFraction).Build(recipes)
	stats.Graph = gstats
	stats.PrunedIngredients = g.PrunedIngredients()

	// 4. 評分，只保留圖中的食譜
	step = time.Now()
	agg := corpus.NewRatingAggregator(g.HasNode)
	events, err := ratings(agg)
	if err != nil {
		return nil, err
	}
	table := agg.Table()
	stats.RatingEvents = events
	stats.RatingsSkipped = agg.Skipped()
	stats.RatedRecipes = table.Len()
	common.LogBuildStep("aggregate_ratings", time.Since(step),
		zap.Int("events", events),
		zap.Int("rated_recipes", table.Len()),
	)

	// 5. 名稱索引，只收錄圖中的食譜
	nodes := make([]corpus.Recipe, 0, g.NodeCount())
	for _, r := range recipes {
		if g.HasNode(r.ID) {
			nodes = append(nodes, r)
		}
	}
	index := resolver.NewNameIndex(nodes, opts.CollisionPolicy)
	stats.NameCollisions = index.Collisions()
	stats.IndexedNames = index.Len()

	snap := &Snapshot{
		ID:      common.NewSnapshotID(),
		BuiltAt: time.Now(),
		Engine:  similarity.NewEngine(g, recipes, table),
		Resolver: resolver.New(index, resolver.Options{
			MaxSuggestions: opts.MaxSuggestions,
			Cutoff:         opts.Cutoff,
			Metric:         opts.Metric,
		}),
	}
	stats.Duration = time.Since(start)
	snap.Stats = stats

	common.LogInfo("Snapshot built",
		zap.String("snapshot_id", snap.ID),
		zap.Int("nodes", gstats.Nodes),
		zap.Int("edges", gstats.Edges),
		zap.Int("rated_recipes", stats.RatedRecipes),
		zap.Int("indexed_names", stats.IndexedNames),
		zap.Duration("耗時", stats.Duration),
	)
	return snap, nil
}
