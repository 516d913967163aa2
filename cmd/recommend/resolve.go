package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a recipe name to its id",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func runResolve(cmd *cobra.Command, args []string) error {
	rec, err := buildRecommender(cmd)
	if err != nil {
		return err
	}

	res := rec.Resolve(args[0])
	out := resolveOutput{Query: args[0], Found: res.Found, Suggestions: res.Suggestions}
	if res.Found {
		id := res.ID
		out.ID = &id
	}

	if !humanOutput {
		return outputJSON(cmd.OutOrStdout(), out)
	}

	w := cmd.OutOrStdout()
	switch {
	case res.Found:
		fmt.Fprintf(w, "%s -> %d\n", args[0], res.ID)
	case len(res.Suggestions) > 0:
		printSuggestions(w, args[0], res.Suggestions)
	default:
		fmt.Fprintf(w, "No recipes found matching '%s'\n", args[0])
	}
	return nil
}
