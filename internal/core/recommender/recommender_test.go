package recommender

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"recipe-recommender/internal/core/corpus"
	"recipe-recommender/internal/core/similarity"
	"recipe-recommender/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func triangleRows() []corpus.RecipeRow {
	return []corpus.RecipeRow{
		{ID: 1, Name: "P1", IngredientsRaw: "['a', 'b', 'c']", StepsRaw: "['mix', 'bake']", Description: strPtr("first one")},
		{ID: 2, Name: "P2", IngredientsRaw: "['b', 'c', 'd']", StepsRaw: "[]"},
		{ID: 3, Name: "P3", IngredientsRaw: "['c', 'd', 'e']", StepsRaw: "not a list"},
		{ID: 4, Name: "Empty", IngredientsRaw: "[]"},
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Limit = 0
	opts.MinShared = 1
	return opts
}

type countingSource struct {
	MemorySource
	loads atomic.Int32
	fail  atomic.Bool
}

func (s *countingSource) LoadRecipes(ctx context.Context) ([]corpus.RecipeRow, error) {
	s.loads.Add(1)
	if s.fail.Load() {
		return nil, errors.New("disk on fire")
	}
	return s.MemorySource.LoadRecipes(ctx)
}

func newTestRecommender(t *testing.T, obs Observer) (*Recommender, *countingSource) {
	t.Helper()
	src := &countingSource{MemorySource: MemorySource{
		Recipes: triangleRows(),
		Ratings: []corpus.RatingEvent{{RecipeID: 2, Rating: 5}, {RecipeID: 2, Rating: 3}, {RecipeID: 4, Rating: 1}},
	}}
	rec, err := New(context.Background(), src, testOptions(), WithObserver(obs))
	require.NoError(t, err)
	return rec, src
}

func TestNewBuildsSnapshot(t *testing.T) {
	rec, _ := newTestRecommender(t, nil)

	stats := rec.Stats()
	assert.Equal(t, 3, stats.Nodes)
	assert.Equal(t, 3, stats.Edges)
	assert.Equal(t, 1, stats.RatedRecipes)
	require.NotNil(t, stats.MeanRating)
	assert.InDelta(t, 4.0, *stats.MeanRating, 1e-9)
	assert.Equal(t, 1, stats.MinSharedIngredient)
	assert.Equal(t, 1, stats.Build.Normalize.NoIngredients)
	assert.NotEmpty(t, stats.SnapshotID)
	assert.Equal(t, Defaults{TopK: DefaultTopK, Method: similarity.NormalizedOverlap}, stats.Defaults)
}

func TestNewFailsOnCorpusLoadError(t *testing.T) {
	src := &countingSource{}
	src.fail.Store(true)

	rec, err := New(context.Background(), src, testOptions())
	assert.Nil(t, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrCorpusLoad)
}

func TestQueryByNameAndID(t *testing.T) {
	rec, _ := newTestRecommender(t, nil)

	res, err := rec.Query("  p1 ", QueryOptions{TopK: 2, Method: WithMethod(similarity.RawOverlap)})
	require.NoError(t, err)
	require.True(t, res.Found)
	require.NotNil(t, res.Recipe)
	assert.Equal(t, int64(1), res.Recipe.ID)
	assert.Equal(t, []string{"mix", "bake"}, res.Recipe.Steps)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, int64(2), res.Recommendations[0].ID)
	assert.Equal(t, 2.0, res.Recommendations[0].Score)
	assert.Equal(t, int64(3), res.Recommendations[1].ID)
	assert.Equal(t, 1.0, res.Recommendations[1].Score)

	byID, err := rec.Query("1", QueryOptions{TopK: 2, Method: WithMethod(similarity.RawOverlap)})
	require.NoError(t, err)
	assert.Equal(t, res.Recommendations, byID.Recommendations)
}

func TestQueryPrefersExactNameOverID(t *testing.T) {
	src := &MemorySource{Recipes: []corpus.RecipeRow{
		{ID: 7, Name: "soup", IngredientsRaw: "['x', 'y']"},
		{ID: 8, Name: "7", IngredientsRaw: "['x', 'y', 'z']"},
	}}
	rec, err := New(context.Background(), src, testOptions())
	require.NoError(t, err)

	res, err := rec.Query("7", QueryOptions{})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, int64(8), res.Recipe.ID)

	res, err = rec.Query("8", QueryOptions{})
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, int64(8), res.Recipe.ID)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, int64(7), res.Recommendations[0].ID)
}

func TestQueryUnknownNameReturnsSuggestions(t *testing.T) {
	rec, _ := newTestRecommender(t, nil)

	res, err := rec.Query("P9", QueryOptions{})
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Nil(t, res.Recipe)
	assert.Empty(t, res.Recommendations)

	names := make([]string, 0, len(res.Suggestions))
	for _, s := range res.Suggestions {
		names = append(names, s.Name)
	}
	// "p9" vs "p1"/"p2"/"p3" scores 0.5, below the 0.6 cutoff
	assert.Empty(t, names)
}

func TestQueryMethodTwoUnratedAddsZero(t *testing.T) {
	rec, _ := newTestRecommender(t, nil)

	res, err := rec.Query("P1", QueryOptions{Method: WithMethod(similarity.NormalizedOverlapRating)})
	require.NoError(t, err)
	require.Len(t, res.Recommendations, 2)
	assert.InDelta(t, 2.0/3.0+4.0/5.0, res.Recommendations[0].Score, 1e-9)
	assert.InDelta(t, 1.0/3.0, res.Recommendations[1].Score, 1e-9)
	assert.Nil(t, res.Recommendations[1].Rating)
}

func TestRecommendUnknownIDIsEmpty(t *testing.T) {
	rec, _ := newTestRecommender(t, nil)

	// id 4 exists in the corpus but has no ingredients, so it is not a node
	for _, id := range []int64{4, 999} {
		out, err := rec.Recommend(id, QueryOptions{})
		require.NoError(t, err)
		assert.Empty(t, out.Recommendations)
	}
	_, ok := rec.Recipe(4)
	assert.False(t, ok)
}

func TestInvalidOverrides(t *testing.T) {
	rec, _ := newTestRecommender(t, nil)

	_, err := rec.Recommend(1, QueryOptions{TopK: -1})
	assert.ErrorIs(t, err, common.ErrInvalidTopK)

	_, err = rec.Query("P1", QueryOptions{Method: WithMethod(similarity.Method(3))})
	assert.ErrorIs(t, err, common.ErrInvalidMethod)
}

func TestConfigure(t *testing.T) {
	rec, _ := newTestRecommender(t, nil)

	require.NoError(t, rec.Configure(1, similarity.RawOverlap))
	assert.Equal(t, Defaults{TopK: 1, Method: similarity.RawOverlap}, rec.Defaults())

	out, err := rec.Recommend(2, QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, out.Recommendations, 1)
	assert.Equal(t, similarity.RawOverlap, out.Method)

	assert.ErrorIs(t, rec.Configure(0, similarity.RawOverlap), common.ErrInvalidTopK)
	assert.ErrorIs(t, rec.Configure(5, similarity.Method(-1)), common.ErrInvalidMethod)
	assert.Equal(t, 1, rec.Defaults().TopK)
}

func TestRecipeDetail(t *testing.T) {
	rec, _ := newTestRecommender(t, nil)

	d, ok := rec.Recipe(2)
	require.True(t, ok)
	assert.Equal(t, "P2", d.Name)
	assert.Equal(t, corpus.DefaultDescription, d.Description)
	require.NotNil(t, d.Rating)
	assert.InDelta(t, 4.0, *d.Rating, 1e-9)
	assert.Equal(t, 2, d.RatingCount)
	assert.Equal(t, 2, d.Degree)
}

func TestReloadSwapsAndKeepsOldOnFailure(t *testing.T) {
	rec, src := newTestRecommender(t, nil)
	first := rec.Snapshot()

	src.Recipes = append(src.Recipes, corpus.RecipeRow{ID: 5, Name: "P5", IngredientsRaw: "['a', 'e']"})
	snap, err := rec.Reload(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, snap.ID)
	assert.Equal(t, snap, rec.Snapshot())
	assert.Equal(t, 4, rec.Stats().Nodes)

	// in-flight readers still see their own snapshot
	assert.Equal(t, 3, first.Graph().NodeCount())

	src.fail.Store(true)
	_, err = rec.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, snap.ID, rec.Snapshot().ID)
}

func TestReloadWithoutSource(t *testing.T) {
	snap, err := BuildSnapshotFromRows(context.Background(), triangleRows(), nil, testOptions())
	require.NoError(t, err)

	rec, err := NewFromSnapshot(snap, Defaults{TopK: 3, Method: similarity.RawOverlap})
	require.NoError(t, err)
	_, err = rec.Reload(context.Background())
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
}

func TestConcurrentQueriesDuringReload(t *testing.T) {
	rec, _ := newTestRecommender(t, nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				res, err := rec.Query("P1", QueryOptions{TopK: 2})
				if !assert.NoError(t, err) {
					return
				}
				assert.Len(t, res.Recommendations, 2)
			}
		}()
	}
	for i := 0; i < 5; i++ {
		_, err := rec.Reload(context.Background())
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}

type recordingObserver struct {
	mu      sync.Mutex
	swaps   int
	fails   int
	queries map[string]int
}

func (o *recordingObserver) SnapshotSwapped(SnapshotStats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.swaps++
}

func (o *recordingObserver) ReloadFailed(error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fails++
}

func (o *recordingObserver) QueryServed(op, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.queries == nil {
		o.queries = map[string]int{}
	}
	o.queries[op+"/"+outcome]++
}

func TestObserverEvents(t *testing.T) {
	obs := &recordingObserver{}
	rec, src := newTestRecommender(t, obs)

	rec.Resolve("P1")
	rec.Resolve("zzzzzz")
	_, _ = rec.Recommend(1, QueryOptions{})
	_, _ = rec.Recommend(1, QueryOptions{TopK: -3})
	src.fail.Store(true)
	_, _ = rec.Reload(context.Background())

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 1, obs.swaps)
	assert.Equal(t, 1, obs.fails)
	assert.Equal(t, 1, obs.queries["resolve/found"])
	assert.Equal(t, 1, obs.queries["resolve/empty"])
	assert.Equal(t, 1, obs.queries["recommend/found"])
	assert.Equal(t, 1, obs.queries["recommend/invalid"])
}
