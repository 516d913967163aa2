package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevenshteinSimilarity(t *testing.T) {
	m := Levenshtein{}
	assert.InDelta(t, 1.0, m.Similarity("", ""), 1e-9)
	assert.InDelta(t, 1.0, m.Similarity("cake", "cake"), 1e-9)
	assert.InDelta(t, 4.0/7.0, m.Similarity("kitten", "sitting"), 1e-9)
	assert.InDelta(t, 0.0, m.Similarity("abc", ""), 1e-9)
	// rune-aware
	assert.InDelta(t, 0.75, m.Similarity("café", "cafe"), 1e-9)
}

func TestJaroWinklerSimilarity(t *testing.T) {
	m := JaroWinkler{}
	assert.InDelta(t, 0.9611, m.Similarity("martha", "marhta"), 1e-4)
	assert.InDelta(t, 1.0, m.Similarity("pie", "pie"), 1e-9)
	assert.InDelta(t, 0.0, m.Similarity("abc", "xyz"), 1e-9)
	assert.InDelta(t, 0.0, m.Similarity("", "abc"), 1e-9)
	assert.InDelta(t, 1.0, m.Similarity("", ""), 1e-9)
}

func TestBigramSimilarity(t *testing.T) {
	m := Bigram{}
	assert.InDelta(t, 0.25, m.Similarity("night", "nacht"), 1e-9)
	assert.InDelta(t, 1.0, m.Similarity("a", "a"), 1e-9)
	assert.InDelta(t, 0.0, m.Similarity("a", "b"), 1e-9)
}

func TestMetricByName(t *testing.T) {
	for name, want := range map[string]string{
		"":             MetricLevenshtein,
		"Levenshtein":  MetricLevenshtein,
		"jaro-winkler": MetricJaroWinkler,
		"bigram":       MetricBigram,
	} {
		m, err := MetricByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, m.Name())
	}

	_, err := MetricByName("soundex")
	assert.Error(t, err)
}

func TestMetricsSwapIndependently(t *testing.T) {
	for _, m := range []Metric{Levenshtein{}, JaroWinkler{}, Bigram{}} {
		r := newResolver(FirstWins, m)
		assert.True(t, r.Resolve("P1").Found, m.Name())

		res := r.Resolve("chocolate chip cookiez")
		require.NotEmpty(t, res.Suggestions, m.Name())
		assert.Equal(t, "Chocolate Chip Cookies", res.Suggestions[0].Name, m.Name())
	}
}
