package config

import (
	"fmt"
	"strings"
)

// ProxyConfig is the top-level configuration for the secure proxy.
type ProxyConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Scorer   ScorerConfig   `yaml:"scorer"`
	Cache    CacheConfig    `yaml:"cache"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port                int `yaml:"port"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int `yaml:"idle_timeout_seconds"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// AnalysisConfig configures the content security analysis engine.
type AnalysisConfig struct {
	// MaxPayloadBytes is the size ceiling; oversize submissions never reach
	// the detectors. 0 means the 10 MiB default.
	MaxPayloadBytes int `yaml:"max_payload_bytes"`

	// RulePenalty is subtracted once when any pattern category fires.
	RulePenalty float64 `yaml:"rule_penalty"`

	// PIIPenalty is subtracted once when any PII category fires.
	PIIPenalty float64 `yaml:"pii_penalty"`

	// EmbeddedFileFactor multiplies confidence when a document carries
	// embedded files.
	EmbeddedFileFactor float64 `yaml:"embedded_file_factor"`

	// ActiveScriptFactor multiplies confidence when a document carries
	// active scripting content.
	ActiveScriptFactor float64 `yaml:"active_script_factor"`

	// Levels maps security level name (high, medium, low) to its policy.
	Levels map[string]LevelPolicy `yaml:"levels"`

	// PatternTables optionally replaces the built-in pattern tables.
	// Categories not listed keep their built-in patterns.
	PatternTables []PatternCategory `yaml:"pattern_tables,omitempty"`
}

// LevelPolicy selects which detectors run at a security level and how their
// outputs are weighted. The detectors themselves are always safe to invoke;
// only the policy decides whether they are.
type LevelPolicy struct {
	// Threshold is the minimum confidence for a safe verdict.
	Threshold float64 `yaml:"threshold"`

	// EnableRiskScorer controls whether the learned risk scorer runs.
	EnableRiskScorer bool `yaml:"enable_risk_scorer"`

	// RiskWeight scales the scorer's malicious probability in the blend.
	RiskWeight float64 `yaml:"risk_weight"`

	// EnableStructural controls whether document structural penalties apply.
	EnableStructural bool `yaml:"enable_structural"`
}

// PatternCategory overrides the pattern set for one issue category.
type PatternCategory struct {
	Category string   `yaml:"category"`
	Literals []string `yaml:"literals,omitempty"`
	Regexps  []string `yaml:"regexps,omitempty"`
}

// ScorerConfig configures the risk scorer backend.
type ScorerConfig struct {
	// Backend is one of "logistic", "static" or "disabled".
	Backend string `yaml:"backend"`

	// StaticScore is the fixed probability returned by the static backend.
	StaticScore float64 `yaml:"static_score"`
}

// CacheConfig configures the analysis result cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// Backend is one of "memory" or "redis".
	Backend string `yaml:"backend"`

	// TextTTLSeconds is the TTL for text analysis results.
	TextTTLSeconds int `yaml:"text_ttl_seconds"`

	// FileTTLSeconds is the TTL for file analysis results.
	FileTTLSeconds int `yaml:"file_ttl_seconds"`

	Memory MemoryCacheConfig `yaml:"memory"`
	Redis  RedisCacheConfig  `yaml:"redis"`
}

// MemoryCacheConfig configures the in-memory cache backend.
type MemoryCacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// RedisCacheConfig configures the Redis cache backend.
type RedisCacheConfig struct {
	Address   string `yaml:"address"`
	Database  int    `yaml:"database"`
	Password  string `yaml:"password"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Defaults mirrored from the original deployment.
const (
	DefaultMaxPayloadBytes    = 10 * 1024 * 1024
	DefaultRulePenalty        = 0.5
	DefaultPIIPenalty         = 0.5
	DefaultEmbeddedFileFactor = 0.8
	DefaultActiveScriptFactor = 0.7
	DefaultTextTTLSeconds     = 1800
	DefaultFileTTLSeconds     = 7200
)

// DefaultLevels returns the built-in security level policy table.
// High runs every detector, medium relaxes the scorer weight, low skips the
// scorer entirely for latency.
func DefaultLevels() map[string]LevelPolicy {
	return map[string]LevelPolicy{
		"high": {
			Threshold:        0.8,
			EnableRiskScorer: true,
			RiskWeight:       0.6,
			EnableStructural: true,
		},
		"medium": {
			Threshold:        0.7,
			EnableRiskScorer: true,
			RiskWeight:       0.3,
			EnableStructural: true,
		},
		"low": {
			Threshold:        0.5,
			EnableRiskScorer: false,
			RiskWeight:       0,
			EnableStructural: false,
		},
	}
}

// ApplyDefaults fills zero values with the built-in defaults.
func (c *ProxyConfig) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 30
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Server.IdleTimeoutSeconds == 0 {
		c.Server.IdleTimeoutSeconds = 60
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Analysis.MaxPayloadBytes == 0 {
		c.Analysis.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	if c.Analysis.RulePenalty == 0 {
		c.Analysis.RulePenalty = DefaultRulePenalty
	}
	if c.Analysis.PIIPenalty == 0 {
		c.Analysis.PIIPenalty = DefaultPIIPenalty
	}
	if c.Analysis.EmbeddedFileFactor == 0 {
		c.Analysis.EmbeddedFileFactor = DefaultEmbeddedFileFactor
	}
	if c.Analysis.ActiveScriptFactor == 0 {
		c.Analysis.ActiveScriptFactor = DefaultActiveScriptFactor
	}
	if len(c.Analysis.Levels) == 0 {
		c.Analysis.Levels = DefaultLevels()
	}
	if c.Scorer.Backend == "" {
		c.Scorer.Backend = "logistic"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TextTTLSeconds == 0 {
		c.Cache.TextTTLSeconds = DefaultTextTTLSeconds
	}
	if c.Cache.FileTTLSeconds == 0 {
		c.Cache.FileTTLSeconds = DefaultFileTTLSeconds
	}
	if c.Cache.Memory.MaxEntries == 0 {
		c.Cache.Memory.MaxEntries = 1000
	}
}

// LevelPolicyFor returns the policy for a level name, defaulting to high for
// unknown names so an invalid caller value cannot weaken analysis.
func (c *AnalysisConfig) LevelPolicyFor(level string) LevelPolicy {
	if pol, ok := c.Levels[strings.ToLower(level)]; ok {
		return pol
	}
	return c.Levels["high"]
}

// Validate checks structural invariants that would make verdicts meaningless.
func (c *ProxyConfig) Validate() error {
	if c.Analysis.MaxPayloadBytes < 0 {
		return fmt.Errorf("analysis.max_payload_bytes must be non-negative, got %d", c.Analysis.MaxPayloadBytes)
	}
	for name, pol := range c.Analysis.Levels {
		if pol.Threshold < 0 || pol.Threshold > 1 {
			return fmt.Errorf("analysis.levels.%s.threshold must be in [0,1], got %v", name, pol.Threshold)
		}
		if pol.RiskWeight < 0 || pol.RiskWeight > 1 {
			return fmt.Errorf("analysis.levels.%s.risk_weight must be in [0,1], got %v", name, pol.RiskWeight)
		}
	}
	for _, name := range []string{"high", "medium", "low"} {
		if _, ok := c.Analysis.Levels[name]; !ok {
			return fmt.Errorf("analysis.levels must define %q", name)
		}
	}
	switch c.Scorer.Backend {
	case "logistic", "static", "disabled":
	default:
		return fmt.Errorf("unknown scorer backend: %s (supported: logistic, static, disabled)", c.Scorer.Backend)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend: %s (supported: memory, redis)", c.Cache.Backend)
	}
	if c.Cache.Enabled && c.Cache.Backend == "redis" && c.Cache.Redis.Address == "" {
		return fmt.Errorf("cache.redis.address is required for the redis backend")
	}
	return nil
}
