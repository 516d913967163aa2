package main

import (
	"recipe-recommender/internal/api/handlers"
	"recipe-recommender/internal/core/recommender"

	"github.com/spf13/cobra"
)

var (
	queryTopK   int
	queryMethod string
)

func init() {
	queryCmd.Flags().IntVar(&queryTopK, "top-k", 0, "Number of recommendations (0 uses the configured default)")
	queryCmd.Flags().StringVar(&queryMethod, "method", "", "Scoring method: 0|raw, 1|normalized, 2|normalized+rating")
	rootCmd.AddCommand(queryCmd)
}

var queryCmd = &cobra.Command{
	Use:   "query <name-or-id>",
	Short: "Recommend recipes similar to one recipe",
	Long: `Recommend recipes similar to one recipe.

The argument is a recipe name (matched case-insensitively) or a numeric
recipe id. When the name has no exact match the closest names are listed
instead.

Examples:
  recommend query "chocolate chip cookies"
  recommend query 137739 --top-k 5 --method 2
  recommend query "banana bread" --method raw --human`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	var opts recommender.QueryOptions
	if cmd.Flags().Changed("top-k") {
		topK, err := handlers.CheckTopK(queryTopK)
		if err != nil {
			return err
		}
		opts.TopK = topK
	}
	method, err := handlers.ParseMethod(queryMethod)
	if err != nil {
		return err
	}
	opts.Method = method

	rec, err := buildRecommender(cmd)
	if err != nil {
		return err
	}

	result, err := rec.Query(args[0], opts)
	if err != nil {
		return err
	}

	if humanOutput {
		printQueryResult(cmd.OutOrStdout(), result)
		return nil
	}
	return outputJSON(cmd.OutOrStdout(), result)
}
