package recommender

import (
	"context"
	"testing"
	"time"

	"recipe-recommender/internal/core/corpus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingSource holds LoadRecipes until release is closed, after the
// first successful build.
type blockingSource struct {
	MemorySource
	started chan struct{}
	release chan struct{}
	calls   int
}

func (s *blockingSource) LoadRecipes(ctx context.Context) ([]corpus.RecipeRow, error) {
	s.calls++
	if s.calls > 1 {
		s.started <- struct{}{}
		<-s.release
	}
	return s.MemorySource.LoadRecipes(ctx)
}

func TestReloaderRunsAndReports(t *testing.T) {
	rec, _ := newTestRecommender(t, nil)
	before := rec.Snapshot().ID

	rl := NewReloader(rec, time.Minute)
	defer rl.Close()

	ticket, coalesced, err := rl.Enqueue()
	require.NoError(t, err)
	assert.False(t, coalesced)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := ticket.Wait(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, res.SnapshotID)
	assert.Equal(t, rec.Snapshot().ID, res.SnapshotID)

	st := rl.Status()
	assert.Equal(t, int64(1), st.Processed)
	assert.Zero(t, st.Failed)
}

func TestReloaderCoalescesPendingRequests(t *testing.T) {
	src := &blockingSource{
		MemorySource: MemorySource{Recipes: triangleRows()},
		started:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	rec, err := New(context.Background(), src, testOptions())
	require.NoError(t, err)

	rl := NewReloader(rec, 0)
	defer rl.Close()

	running, _, err := rl.Enqueue()
	require.NoError(t, err)
	<-src.started // worker is now inside the first reload

	pending, coalesced, err := rl.Enqueue()
	require.NoError(t, err)
	assert.False(t, coalesced)

	joined, coalesced, err := rl.Enqueue()
	require.NoError(t, err)
	assert.True(t, coalesced)
	assert.Same(t, pending, joined)
	assert.True(t, rl.Status().Pending)

	close(src.release)
	go func() { <-src.started }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	first, err := running.Wait(ctx)
	require.NoError(t, err)
	second, err := joined.Wait(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.SnapshotID, second.SnapshotID)
	assert.Equal(t, int64(2), rl.Status().Processed)
}

func TestReloaderRecordsFailure(t *testing.T) {
	rec, src := newTestRecommender(t, nil)
	src.fail.Store(true)

	rl := NewReloader(rec, 0)
	defer rl.Close()

	ticket, _, err := rl.Enqueue()
	require.NoError(t, err)
	_, err = ticket.Wait(context.Background())
	require.Error(t, err)

	st := rl.Status()
	assert.Equal(t, int64(1), st.Failed)
	assert.Contains(t, st.LastError, "disk on fire")
}

func TestReloaderClosed(t *testing.T) {
	rec, _ := newTestRecommender(t, nil)
	rl := NewReloader(rec, 0)
	rl.Close()
	rl.Close()

	_, _, err := rl.Enqueue()
	assert.ErrorIs(t, err, ErrReloaderClosed)
}
