package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRows(n int) []RecipeRow {
	rows := make([]RecipeRow, n)
	for i := range rows {
		rows[i] = RecipeRow{ID: int64(i + 1), Name: "r"}
	}
	return rows
}

func TestSampleFirst(t *testing.T) {
	rows := makeRows(10)
	got := Sample(rows, 3, SampleFirst, 42)
	require.Len(t, got, 3)
	assert.Equal(t, []int64{1, 2, 3}, ids(got))
}

func TestSampleRandomDeterministic(t *testing.T) {
	rows := makeRows(100)
	a := Sample(rows, 10, SampleRandom, 42)
	b := Sample(rows, 10, SampleRandom, 42)
	c := Sample(rows, 10, SampleRandom, 7)

	require.Len(t, a, 10)
	assert.Equal(t, ids(a), ids(b))
	assert.NotEqual(t, ids(a), ids(c))

	// source order, no repeats
	got := ids(a)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1], got[i])
	}
}

func TestSampleNoLimit(t *testing.T) {
	rows := makeRows(5)
	assert.Len(t, Sample(rows, 0, SampleRandom, 42), 5)
	assert.Len(t, Sample(rows, 50, SampleRandom, 42), 5)
}

func TestParseSampling(t *testing.T) {
	s, err := ParseSampling("first")
	require.NoError(t, err)
	assert.Equal(t, SampleFirst, s)

	_, err = ParseSampling("shuffle")
	assert.Error(t, err)
}

func ids(rows []RecipeRow) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
