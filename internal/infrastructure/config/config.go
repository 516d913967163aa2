package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Corpus      CorpusConfig    `mapstructure:"corpus"`
	Graph       GraphConfig     `mapstructure:"graph"`
	Recommend   RecommendConfig `mapstructure:"recommend"`
	Resolver    ResolverConfig  `mapstructure:"resolver"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
	LogDir      string          `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// Sampling modes. The two produce different corpora and are not interchangeable.
const (
	SamplingRandom = "random"
	SamplingFirst  = "first"
)

// CorpusConfig 語料來源設定
type CorpusConfig struct {
	DataPath         string        `mapstructure:"data_path"`
	BaseURL          string        `mapstructure:"base_url"`
	RecipesFile      string        `mapstructure:"recipes_file"`
	InteractionsFile string        `mapstructure:"interactions_file"`
	Limit            int           `mapstructure:"limit"`
	Sampling         string        `mapstructure:"sampling"`
	Seed             uint64        `mapstructure:"seed"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
}

// GraphConfig 相似度圖設定
type GraphConfig struct {
	MinSharedIngredients int           `mapstructure:"min_shared_ingredients"`
	PruneTopFraction     float64       `mapstructure:"prune_top_fraction"`
	NormalizeWorkers     int           `mapstructure:"normalize_workers"`
	BuildTimeout         time.Duration `mapstructure:"build_timeout"`
}

// RecommendConfig 推薦預設值
type RecommendConfig struct {
	TopK   int `mapstructure:"top_k"`
	Method int `mapstructure:"method"`
}

// Name collision policies.
const (
	CollisionFirstWins = "first"
	CollisionLastWins  = "last"
)

// ResolverConfig 名稱解析設定
type ResolverConfig struct {
	MaxSuggestions  int     `mapstructure:"max_suggestions"`
	Cutoff          float64 `mapstructure:"cutoff"`
	Metric          string  `mapstructure:"metric"`
	CollisionPolicy string  `mapstructure:"collision_policy"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// MetricsConfig Prometheus 指標設定
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時只用環境變數與預設值
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Load(viper.New())
}

// Load 從指定的 viper 實例解析設定，方便測試時注入
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("corpus.data_path", "APP_CORPUS_DATA_PATH", "DATA_PATH")
	_ = v.BindEnv("corpus.base_url", "APP_CORPUS_BASE_URL", "CORPUS_BASE_URL")
	_ = v.BindEnv("corpus.limit", "APP_CORPUS_LIMIT", "CORPUS_LIMIT")
	_ = v.BindEnv("corpus.sampling", "APP_CORPUS_SAMPLING", "CORPUS_SAMPLING")
	_ = v.BindEnv("graph.min_shared_ingredients", "APP_GRAPH_MIN_SHARED_INGREDIENTS", "MIN_SHARED_INGREDIENTS")
	_ = v.BindEnv("cache.enabled", "APP_CACHE_ENABLED", "CACHE_ENABLED")
	_ = v.BindEnv("cache.redis_addr", "APP_CACHE_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("rate_limit.enabled", "APP_RATE_LIMIT_ENABLED", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "APP_RATE_LIMIT_REQUESTS", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "APP_RATE_LIMIT_WINDOW", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("dedup_window", "APP_DEDUP_WINDOW", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "APP_LOG_LEVEL", "LOG_LEVEL")

	// 可選的 YAML 設定檔
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Corpus.Sampling = strings.ToLower(strings.TrimSpace(config.Corpus.Sampling))
	config.Resolver.Metric = strings.ToLower(strings.TrimSpace(config.Resolver.Metric))
	config.Resolver.CollisionPolicy = strings.ToLower(strings.TrimSpace(config.Resolver.CollisionPolicy))
	config.Cache.Backend = strings.ToLower(strings.TrimSpace(config.Cache.Backend))

	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-recommender")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 語料設定
	v.SetDefault("corpus.data_path", "archive/")
	v.SetDefault("corpus.base_url", "")
	v.SetDefault("corpus.recipes_file", "RAW_recipes.csv")
	v.SetDefault("corpus.interactions_file", "RAW_interactions.csv")
	v.SetDefault("corpus.limit", 5000)
	v.SetDefault("corpus.sampling", SamplingRandom)
	v.SetDefault("corpus.seed", 42)
	v.SetDefault("corpus.fetch_timeout", "2m")

	// 圖設定
	v.SetDefault("graph.min_shared_ingredients", 3)
	v.SetDefault("graph.prune_top_fraction", 0.0)
	v.SetDefault("graph.normalize_workers", 4)
	v.SetDefault("graph.build_timeout", "10m")

	// 推薦設定
	v.SetDefault("recommend.top_k", 10)
	v.SetDefault("recommend.method", 1)

	// 名稱解析設定
	v.SetDefault("resolver.max_suggestions", 5)
	v.SetDefault("resolver.cutoff", 0.6)
	v.SetDefault("resolver.metric", "levenshtein")
	v.SetDefault("resolver.collision_policy", CollisionFirstWins)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "recipe_recommender")

	v.SetDefault("dedup_window", "5s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// Validate 驗證設定
func Validate(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Corpus.DataPath == "" && config.Corpus.BaseURL == "" {
		return fmt.Errorf("corpus data_path or base_url is required")
	}
	if config.Corpus.Limit < 0 {
		return fmt.Errorf("invalid corpus limit %d", config.Corpus.Limit)
	}
	switch config.Corpus.Sampling {
	case SamplingRandom, SamplingFirst:
	default:
		return fmt.Errorf("invalid corpus sampling %q (want %q or %q)", config.Corpus.Sampling, SamplingRandom, SamplingFirst)
	}

	if config.Graph.MinSharedIngredients < 1 {
		return fmt.Errorf("graph min_shared_ingredients must be >= 1")
	}
	if config.Graph.PruneTopFraction < 0 || config.Graph.PruneTopFraction >= 1 {
		return fmt.Errorf("graph prune_top_fraction must be in [0, 1)")
	}

	if config.Recommend.TopK <= 0 {
		return fmt.Errorf("invalid recommend top_k")
	}
	if config.Recommend.Method < 0 || config.Recommend.Method > 2 {
		return fmt.Errorf("invalid recommend method %d", config.Recommend.Method)
	}

	if config.Resolver.MaxSuggestions < 0 {
		return fmt.Errorf("invalid resolver max_suggestions")
	}
	if config.Resolver.Cutoff < 0 || config.Resolver.Cutoff > 1 {
		return fmt.Errorf("resolver cutoff must be in [0, 1]")
	}
	switch config.Resolver.Metric {
	case "levenshtein", "jaro-winkler", "bigram":
	default:
		return fmt.Errorf("invalid resolver metric %q", config.Resolver.Metric)
	}
	switch config.Resolver.CollisionPolicy {
	case CollisionFirstWins, CollisionLastWins:
	default:
		return fmt.Errorf("invalid resolver collision_policy %q", config.Resolver.CollisionPolicy)
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Cache.RedisAddr == "" {
				return fmt.Errorf("cache redis_addr is required for redis backend")
			}
		default:
			return fmt.Errorf("invalid cache backend %q", config.Cache.Backend)
		}
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit settings")
	}

	return nil
}
