package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"recipe-recommender/internal/core/recommender"
	"recipe-recommender/internal/core/resolver"
)

type resolveOutput struct {
	Query       string                `json:"query"`
	Found       bool                  `json:"found"`
	ID          *int64                `json:"id,omitempty"`
	Suggestions []resolver.Suggestion `json:"suggestions,omitempty"`
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSuggestions(w io.Writer, query string, suggestions []resolver.Suggestion) {
	fmt.Fprintf(w, "Recipe '%s' not found exactly. Did you mean:\n", query)
	for i, s := range suggestions {
		fmt.Fprintf(w, "%d. %s\n", i+1, s.Name)
	}
}

func printQueryResult(w io.Writer, res recommender.QueryResult) {
	if !res.Found {
		if len(res.Suggestions) > 0 {
			printSuggestions(w, res.Query, res.Suggestions)
			fmt.Fprintln(w, "\nTry searching with one of these suggestions.")
		} else {
			fmt.Fprintf(w, "No recipes found matching '%s'\n", res.Query)
		}
		return
	}

	fmt.Fprintf(w, "Found recipe: %s (id %d)\n", res.Recipe.Name, res.Recipe.ID)
	if res.Recipe.Rating != nil {
		fmt.Fprintf(w, "Rating: %.1f/5.0 (%d reviews)\n", *res.Recipe.Rating, res.Recipe.RatingCount)
	}
	ingredients := append([]string(nil), res.Recipe.Ingredients...)
	sort.Strings(ingredients)
	fmt.Fprintf(w, "\nIngredients (%d):\n%s\n", len(ingredients), strings.Join(ingredients, ", "))

	if len(res.Recommendations) == 0 {
		fmt.Fprintln(w, "\nNo similar recipes found in the graph.")
		return
	}

	fmt.Fprintf(w, "\nTop %d similar recipes (%s):\n", len(res.Recommendations), res.Method)
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for i, r := range res.Recommendations {
		fmt.Fprintf(w, "%2d. %s\n", i+1, r.Name)
		fmt.Fprintf(w, "    Score: %.3f\n", r.Score)
		fmt.Fprintf(w, "    Shared ingredients (%d): %s\n", r.Weight, strings.Join(r.SharedIngredients, ", "))
		if r.Rating != nil {
			fmt.Fprintf(w, "    Rating: %.1f/5.0\n", *r.Rating)
		}
		fmt.Fprintf(w, "    Total ingredients: %d\n\n", len(r.Ingredients))
	}
}
