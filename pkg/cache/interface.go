// Package cache stores analysis results keyed by a content fingerprint.
// The analysis engine is pure: identical input and policy always yield an
// identical result, which is what makes caching sound. Backends: memory and
// Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Record is the cached form of one analysis outcome. This is a copy of the
// service-layer result shape to avoid import cycles.
type Record struct {
	Status          string        `json:"status"`
	Reason          string        `json:"reason"`
	RuleScore       float64       `json:"rule_score"`
	LLMScore        float64       `json:"llm_score"`
	OverallScore    float64       `json:"overall_score"`
	DetectedIssues  []IssueRecord `json:"detected_issues"`
	AnalysisSummary string        `json:"analysis_summary"`
	Degraded        bool          `json:"degraded,omitempty"`
	SecurityLevel   string        `json:"security_level"`
	Kind            string        `json:"kind"`
	CachedAt        time.Time     `json:"cached_at"`
}

// IssueRecord is one detected issue in a cached record.
type IssueRecord struct {
	Category string `json:"category"`
	Detail   string `json:"detail"`
}

// ResultStore is the cache contract. Implementations must be thread-safe.
type ResultStore interface {
	// Get retrieves a cached record. Returns ErrNotFound on a miss.
	Get(ctx context.Context, key string) (*Record, error)

	// Set stores a record under the key with the given TTL.
	Set(ctx context.Context, key string, record *Record, ttl time.Duration) error

	// Flush removes all cached records.
	Flush(ctx context.Context) error

	// Stats reports cache statistics for the info endpoint.
	Stats(ctx context.Context) (Stats, error)

	// Close releases resources held by the store.
	Close() error

	// IsEnabled returns whether the store is active.
	IsEnabled() bool

	// CheckConnection verifies the store connection is healthy.
	CheckConnection(ctx context.Context) error
}

// Stats describes the state of a cache backend.
type Stats struct {
	Backend   string `json:"backend"`
	Connected bool   `json:"connected"`
	Entries   int64  `json:"entries"`
	Hits      int64  `json:"hits"`
	Misses    int64  `json:"misses"`
}

// BackendType defines available cache backends.
type BackendType string

const (
	// MemoryBackend is the in-memory cache backend.
	MemoryBackend BackendType = "memory"

	// RedisBackend is the Redis cache backend.
	RedisBackend BackendType = "redis"
)

// StoreConfig contains configuration for creating a store.
type StoreConfig struct {
	Backend BackendType
	Enabled bool

	Memory MemoryConfig
	Redis  RedisConfig
}

// MemoryConfig configures the in-memory store.
type MemoryConfig struct {
	// MaxEntries caps the cache; the least recently used entry is evicted
	// at capacity.
	MaxEntries int
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Address   string
	Database  int
	Password  string
	KeyPrefix string
}

// Fingerprint builds the cache key for a submission: a digest of the content
// plus the analysis parameters, so the same payload at different security
// levels never shares a verdict.
func Fingerprint(kind, level string, content []byte) string {
	digest := sha256.Sum256(content)
	return "validation:" + kind + ":" + level + ":" + hex.EncodeToString(digest[:])
}
