// Package cache stores serialized query responses. Keys embed the snapshot
// id, so a reload makes older entries unreachable without a purge.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"recipe-recommender/internal/infrastructure/config"
	"recipe-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// Backends accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Store 緩存後端介面
type Store interface {
	// Get returns common.ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Stats() Stats
	Close() error
}

// Stats 緩存統計
type Stats struct {
	Backend   string  `json:"backend"`
	Size      int     `json:"size"`
	MaxSize   int     `json:"max_size,omitempty"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Errors    int64   `json:"errors"`
	HitRatio  float64 `json:"hit_ratio"`
}

func hitRatio(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// New returns the configured backend, or nil when caching is disabled.
func New(cfg config.CacheConfig) (Store, error) {
	if !cfg.Enabled {
		common.LogInfo("Cache disabled")
		return nil, nil
	}
	switch cfg.Backend {
	case BackendMemory, "":
		return NewManager(cfg), nil
	case BackendRedis:
		rs, err := NewRedisStore(cfg)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key builds a cache key scoped to a snapshot. The variable parts are
// hashed so user input never reaches the key verbatim.
func Key(kind, snapshotID string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return fmt.Sprintf("%s:%s:%s", kind, snapshotID, hex.EncodeToString(hash[:]))
}

// GetJSON 取得並解析 JSON 緩存
func GetJSON[T any](ctx context.Context, s Store, key string) (T, bool) {
	var out T
	if s == nil {
		return out, false
	}
	data, err := s.Get(ctx, key)
	if err != nil {
		return out, false
	}
	if err := common.DecodePayload(data, &out); err != nil {
		return out, false
	}
	return out, true
}

// SetJSON 序列化後寫入緩存，失敗只記錄不回傳
func SetJSON(ctx context.Context, s Store, key string, v any) {
	if s == nil {
		return
	}
	data, err := common.EncodePayload(v)
	if err != nil {
		common.LogWarn("Cache value not serializable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.Set(ctx, key, data); err != nil {
		common.LogWarn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}
