package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Build the graph and print corpus and graph statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, _ []string) error {
	rec, err := buildRecommender(cmd)
	if err != nil {
		return err
	}
	s := rec.Stats()

	if !humanOutput {
		return outputJSON(cmd.OutOrStdout(), s)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Snapshot:               %s (built %s)\n", s.SnapshotID, s.BuiltAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Rows loaded / sampled:  %d / %d (%s)\n", s.Build.RowsLoaded, s.Build.RowsSampled, s.Build.Sampling)
	fmt.Fprintf(w, "Recipes in graph:       %d\n", s.Nodes)
	fmt.Fprintf(w, "Edges:                  %d\n", s.Edges)
	fmt.Fprintf(w, "Distinct ingredients:   %d\n", s.DistinctIngredients)
	fmt.Fprintf(w, "Min shared ingredients: %d\n", s.MinSharedIngredient)
	fmt.Fprintf(w, "Rated recipes:          %d\n", s.RatedRecipes)
	if s.MeanRating != nil {
		fmt.Fprintf(w, "Average rating:         %.2f\n", *s.MeanRating)
	}
	if n := len(s.Build.PrunedIngredients); n > 0 {
		fmt.Fprintf(w, "Pruned ingredients:     %d\n", n)
	}
	fmt.Fprintf(w, "Build time:             %s\n", s.Build.Duration)
	return nil
}
