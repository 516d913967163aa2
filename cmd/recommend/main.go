// Package main provides the recommend CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"recipe-recommender/internal/core/recommender"
	"recipe-recommender/internal/infrastructure/config"
	"recipe-recommender/internal/infrastructure/loader"
	"recipe-recommender/internal/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	humanOutput bool
	logLevel    string
	dataPath    string
	baseURL     string
	corpusLimit int
	sampling    string
	minShared   int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Ingredient-overlap recipe recommender",
	Long: `recommend builds a similarity graph over a recipe corpus and answers
queries against it. Recipes are linked when they share enough ingredients;
neighbors are ranked by raw overlap, normalized overlap, or normalized
overlap plus rating.

Configuration comes from config.yaml, .env and APP_* variables, the same as
the HTTP service; the flags below override them for one run. All commands
print JSON unless --human is given.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	flags.StringVar(&logLevel, "log-level", "", "Log to stderr at this level (debug, info, warn, error)")
	flags.StringVar(&dataPath, "data", "", "Directory holding RAW_recipes.csv and RAW_interactions.csv")
	flags.StringVar(&baseURL, "base-url", "", "Fetch the corpus files from this HTTP(S) base URL")
	flags.IntVar(&corpusLimit, "limit", 0, "Number of recipes to sample (0 keeps the configured value)")
	flags.StringVar(&sampling, "sampling", "", "Sampling mode: random or first")
	flags.IntVar(&minShared, "min-shared", 0, "Minimum shared ingredients for an edge")
	rootCmd.Version = Version
}

// loadConfig layers the command-line flags over the regular configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	flags := cmd.Flags()
	if flags.Changed("data") {
		v.Set("corpus.data_path", dataPath)
	}
	if flags.Changed("base-url") {
		v.Set("corpus.base_url", baseURL)
	}
	if flags.Changed("limit") {
		v.Set("corpus.limit", corpusLimit)
	}
	if flags.Changed("sampling") {
		v.Set("corpus.sampling", sampling)
	}
	if flags.Changed("min-shared") {
		v.Set("graph.min_shared_ingredients", minShared)
	}
	return config.Load(v)
}

// buildRecommender loads the corpus and builds the first snapshot.
func buildRecommender(cmd *cobra.Command) (*recommender.Recommender, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		if err := common.InitStderrLogger(logLevel); err != nil {
			return nil, err
		}
		defer common.Sync()
	}

	opts, err := recommender.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rec, err := recommender.New(ctx, loader.New(cfg.Corpus), opts)
	if err != nil {
		return nil, fmt.Errorf("building recommender: %w", err)
	}
	return rec, nil
}
