package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"recipe-recommender/internal/core/recommender"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRecipes = `name,id,minutes,steps,description,ingredients
P1,1,10,"['mix']",first,"['a', 'b', 'c']"
P2,2,20,"[]",,"['b', 'c', 'd']"
P3,3,,"[]",,"['c', 'd', 'e']"
Empty,4,5,"[]",,"[]"
`

const testInteractions = `user_id,recipe_id,rating
10,2,4
11,2,5
`

func writeCorpus(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "RAW_recipes.csv"), []byte(testRecipes), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "RAW_interactions.csv"), []byte(testInteractions), 0o644))
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	humanOutput = false
	queryMethod = ""

	dir := writeCorpus(t)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--data", dir, "--sampling", "first", "--min-shared", "1"))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestQueryCommandJSON(t *testing.T) {
	out, err := run(t, "query", "p1", "--method", "raw")
	require.NoError(t, err)

	var res recommender.QueryResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.True(t, res.Found)
	require.NotNil(t, res.Recipe)
	assert.Equal(t, int64(1), res.Recipe.ID)
	require.Len(t, res.Recommendations, 2)
	assert.Equal(t, int64(2), res.Recommendations[0].ID)
	assert.Equal(t, 2, res.Recommendations[0].Weight)
}

func TestQueryCommandHuman(t *testing.T) {
	out, err := run(t, "query", "P12", "--human")
	require.NoError(t, err)
	assert.Contains(t, out, "Recipe 'P12' not found exactly. Did you mean:")
	assert.Contains(t, out, "1. P1")

	out, err = run(t, "query", "2", "--human")
	require.NoError(t, err)
	assert.Contains(t, out, "Found recipe: P2 (id 2)")
	assert.Contains(t, out, "Rating: 4.5/5.0")
}

func TestQueryCommandRejectsBadMethod(t *testing.T) {
	_, err := run(t, "query", "p1", "--method", "9")
	assert.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	out, err := run(t, "resolve", "  P3 ")
	require.NoError(t, err)

	var res resolveOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.True(t, res.Found)
	require.NotNil(t, res.ID)
	assert.Equal(t, int64(3), *res.ID)
}

func TestStatsCommand(t *testing.T) {
	out, err := run(t, "stats")
	require.NoError(t, err)

	var s recommender.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &s), out)
	assert.Equal(t, 3, s.Nodes)
	assert.Equal(t, 3, s.Edges)
	assert.Equal(t, 1, s.RatedRecipes)
}
