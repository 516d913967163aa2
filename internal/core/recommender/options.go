package recommender

import (
	"fmt"
	"time"

	"recipe-recommender/internal/core/corpus"
	"recipe-recommender/internal/core/graph"
	"recipe-recommender/internal/core/resolver"
	"recipe-recommender/internal/core/similarity"
	"recipe-recommender/internal/infrastructure/config"
	"recipe-recommender/internal/pkg/common"
)

// DefaultTopK 預設推薦數量
const DefaultTopK = 10

// Options 建立快照與查詢預設值所需的設定
type Options struct {
	Limit    int
	Sampling corpus.Sampling
	Seed     uint64

	MinShared        int
	PruneTopFraction float64
	NormalizeWorkers int

	TopK   int
	Method similarity.Method

	MaxSuggestions  int
	Cutoff          float64
	Metric          resolver.Metric
	CollisionPolicy resolver.CollisionPolicy

	// BuildTimeout bounds one snapshot build including corpus loading; zero means none.
	BuildTimeout time.Duration
}

// DefaultOptions 預設設定
func DefaultOptions() Options {
	return Options{
		Limit:            5000,
		Sampling:         corpus.SampleRandom,
		Seed:             42,
		MinShared:        graph.DefaultMinShared,
		NormalizeWorkers: 4,
		TopK:             DefaultTopK,
		Method:           similarity.DefaultMethod,
		MaxSuggestions:   resolver.DefaultMaxSuggestions,
		Cutoff:           resolver.DefaultCutoff,
		Metric:           resolver.Levenshtein{},
		CollisionPolicy:  resolver.FirstWins,
	}
}

// OptionsFromConfig 由應用設定轉換
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	sampling, err := corpus.ParseSampling(cfg.Corpus.Sampling)
	if err != nil {
		return Options{}, err
	}
	metric, err := resolver.MetricByName(cfg.Resolver.Metric)
	if err != nil {
		return Options{}, err
	}
	policy, err := resolver.ParseCollisionPolicy(cfg.Resolver.CollisionPolicy)
	if err != nil {
		return Options{}, err
	}
	method := similarity.Method(cfg.Recommend.Method)
	if !method.Valid() {
		return Options{}, fmt.Errorf("scoring method %d out of range [0,2]", cfg.Recommend.Method)
	}

	return Options{
		Limit:            cfg.Corpus.Limit,
		Sampling:         sampling,
		Seed:             cfg.Corpus.Seed,
		MinShared:        cfg.Graph.MinSharedIngredients,
		PruneTopFraction: cfg.Graph.PruneTopFraction,
		NormalizeWorkers: cfg.Graph.NormalizeWorkers,
		TopK:             cfg.Recommend.TopK,
		Method:           method,
		MaxSuggestions:   cfg.Resolver.MaxSuggestions,
		Cutoff:           cfg.Resolver.Cutoff,
		Metric:           metric,
		CollisionPolicy:  policy,
		BuildTimeout:     cfg.Graph.BuildTimeout,
	}, nil
}

// Defaults 查詢預設值，可於執行期透過 Configure 變更
type Defaults struct {
	TopK   int               `json:"top_k"`
	Method similarity.Method `json:"method"`
}

func (d Defaults) validate() error {
	if d.TopK <= 0 {
		return common.ErrInvalidTopK.WithError(fmt.Errorf("top_k must be positive, got %d", d.TopK))
	}
	if !d.Method.Valid() {
		return common.ErrInvalidMethod.WithError(fmt.Errorf("scoring method %d out of range [0,2]", int(d.Method)))
	}
	return nil
}

// QueryOptions overrides the defaults for a single query; zero values fall
// back to the configured defaults.
type QueryOptions struct {
	TopK   int
	Method *similarity.Method
}

func (q QueryOptions) resolve(d Defaults) (Defaults, error) {
	out := d
	if q.TopK < 0 {
		return out, common.ErrInvalidTopK.WithError(fmt.Errorf("top_k must not be negative, got %d", q.TopK))
	}
	if q.TopK > 0 {
		out.TopK = q.TopK
	}
	if q.Method != nil {
		if !q.Method.Valid() {
			return out, common.ErrInvalidMethod.WithError(fmt.Errorf("scoring method %d out of range [0,2]", int(*q.Method)))
		}
		out.Method = *q.Method
	}
	return out, nil
}

// WithMethod 方便建立 QueryOptions.Method
func WithMethod(m similarity.Method) *similarity.Method {
	return &m
}
