package cache

import (
	"fmt"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/observability/logging"
)

// NewStore creates a result store based on the configuration. If caching is
// disabled, a disabled memory store is returned so callers need no nil
// checks.
func NewStore(config StoreConfig) (ResultStore, error) {
	if !config.Enabled {
		logging.Debugf("Result cache disabled")
		return NewMemoryStore(MemoryConfig{}, false), nil
	}

	switch config.Backend {
	case MemoryBackend, "":
		logging.Infof("Creating memory result cache with max_entries=%d", config.Memory.MaxEntries)
		return NewMemoryStore(config.Memory, true), nil

	case RedisBackend:
		logging.Infof("Creating Redis result cache at %s", config.Redis.Address)
		return NewRedisStore(config.Redis)

	default:
		return nil, fmt.Errorf("unknown cache backend: %s (supported: memory, redis)", config.Backend)
	}
}
