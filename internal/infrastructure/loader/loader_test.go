package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"recipe-recommender/internal/core/corpus"
	"recipe-recommender/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipesCSV = `name,id,minutes,contributor_id,submitted,tags,nutrition,n_steps,steps,description,ingredients,n_ingredients
arriba baked winter squash,137739,55,47892,2005-09-16,"['60-minutes-or-less']","[51.5]",3,"['make a choice', 'bake']","autumn is my favorite time of year","['winter squash', 'mexican seasoning', 'honey']",3
no minutes stew,31490,,1533,2002-06-17,"[]","[]",1,"['simmer']",,"['beef', 'water']",2
,5000,10,1,2002-01-01,"[]","[]",0,"[]",,"['salt']",1
`

const interactionsCSV = `user_id,recipe_id,date,rating,review
38094,137739,2003-02-17,5,"Great with a salad, cooked on top of stove"
1293707,137739,2011-12-21,4,"So simple"
8937,31490,2002-12-01,0,"hmm"
`

func writeCorpus(t *testing.T, recipes, interactions string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultRecipesFile), []byte(recipes), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultInteractionsFile), []byte(interactions), 0o644))
	return dir
}

func collect(t *testing.T, l *Loader) []corpus.RatingEvent {
	t.Helper()
	var events []corpus.RatingEvent
	require.NoError(t, l.StreamRatings(context.Background(), func(ev corpus.RatingEvent) {
		events = append(events, ev)
	}))
	return events
}

func TestLoadFromDirectory(t *testing.T) {
	dir := writeCorpus(t, recipesCSV, interactionsCSV)
	l := New(config.CorpusConfig{DataPath: dir})

	rows, err := l.LoadRecipes(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first := rows[0]
	assert.Equal(t, int64(137739), first.ID)
	assert.Equal(t, "arriba baked winter squash", first.Name)
	require.NotNil(t, first.Minutes)
	assert.Equal(t, 55, *first.Minutes)
	require.NotNil(t, first.Description)
	assert.Equal(t, "autumn is my favorite time of year", *first.Description)
	assert.Equal(t, []string{"winter squash", "mexican seasoning", "honey"}, corpus.NormalizeIngredients(first.IngredientsRaw))
	assert.Equal(t, []string{"make a choice", "bake"}, corpus.NormalizeSteps(first.StepsRaw))

	second := rows[1]
	assert.Nil(t, second.Minutes)
	assert.Nil(t, second.Description)

	// nameless rows reach the normalizer, which drops them
	assert.Equal(t, "", rows[2].Name)

	events := collect(t, l)
	require.Len(t, events, 3)
	assert.Equal(t, corpus.RatingEvent{RecipeID: 137739, Rating: 5}, events[0])
	assert.Equal(t, corpus.RatingEvent{RecipeID: 31490, Rating: 0}, events[2])
}

func TestLoadMissingFile(t *testing.T) {
	l := New(config.CorpusConfig{DataPath: t.TempDir()})
	_, err := l.LoadRecipes(context.Background())
	assert.Error(t, err)
}

func TestLoadMissingColumn(t *testing.T) {
	dir := writeCorpus(t, "id,name\n1,x\n", interactionsCSV)
	_, err := New(config.CorpusConfig{DataPath: dir}).LoadRecipes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}

func TestLoadInvalidValuesFail(t *testing.T) {
	badID := "id,name,ingredients,minutes,steps,description\nabc,x,[],1,[],\n"
	dir := writeCorpus(t, badID, "recipe_id,rating\n1,five\n")
	l := New(config.CorpusConfig{DataPath: dir})

	_, err := l.LoadRecipes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid id")

	err = l.StreamRatings(context.Background(), func(corpus.RatingEvent) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid rating")
}

func TestLoadFromBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/corpus/" + DefaultRecipesFile:
			_, _ = w.Write([]byte(recipesCSV))
		case "/corpus/" + DefaultInteractionsFile:
			_, _ = w.Write([]byte(interactionsCSV))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := New(config.CorpusConfig{BaseURL: srv.URL + "/corpus/", FetchTimeout: 5 * time.Second})
	assert.Equal(t, srv.URL+"/corpus", l.Describe())

	rows, err := l.LoadRecipes(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Len(t, collect(t, l), 3)

	missing := New(config.CorpusConfig{BaseURL: srv.URL, InteractionsFile: "nope.csv", FetchTimeout: 5 * time.Second})
	err = missing.StreamRatings(context.Background(), func(corpus.RatingEvent) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
