package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/observability/logging"
)

var (
	config     *ProxyConfig
	configOnce sync.Once
	configErr  error
	configMu   sync.RWMutex

	configUpdateCh chan *ProxyConfig
	configUpdateMu sync.Mutex
)

// Load loads the configuration from the given YAML file once and caches it
// globally. A load failure is fatal for the caller: the proxy must not serve
// verdicts against a broken configuration.
func Load(configPath string) (*ProxyConfig, error) {
	configOnce.Do(func() {
		cfg, err := Parse(configPath)
		if err != nil {
			configErr = err
			return
		}
		configMu.Lock()
		config = cfg
		configMu.Unlock()
	})
	if configErr != nil {
		return nil, configErr
	}
	configMu.RLock()
	defer configMu.RUnlock()
	return config, nil
}

// Parse parses and validates the YAML config file without touching the
// global cache.
func Parse(configPath string) (*ProxyConfig, error) {
	// Resolve symlinks to handle Kubernetes ConfigMap mounts
	resolved, _ := filepath.EvalSymlinks(configPath)
	if resolved == "" {
		resolved = configPath
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ProxyConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Infof("Config loaded: levels=%d, cache=%s, scorer=%s",
		len(cfg.Analysis.Levels), cfg.Cache.Backend, cfg.Scorer.Backend)
	return cfg, nil
}

// Default returns a configuration built entirely from defaults, used when no
// config file is given.
func Default() *ProxyConfig {
	cfg := &ProxyConfig{}
	cfg.ApplyDefaults()
	return cfg
}

// Replace replaces the globally cached config. Safe for concurrent readers:
// in-flight analyses keep the snapshot they started with.
func Replace(newCfg *ProxyConfig) {
	configMu.Lock()
	config = newCfg
	configErr = nil
	configMu.Unlock()

	configUpdateMu.Lock()
	if configUpdateCh != nil {
		select {
		case configUpdateCh <- newCfg:
		default:
			logging.Warnf("Config update channel full or no listener, notification skipped")
		}
	}
	configUpdateMu.Unlock()
}

// Get returns the current configuration.
func Get() *ProxyConfig {
	configMu.RLock()
	defer configMu.RUnlock()
	return config
}

// WatchConfigUpdates returns a channel that receives config updates.
// Only one watcher is supported at a time.
func WatchConfigUpdates() <-chan *ProxyConfig {
	configUpdateMu.Lock()
	defer configUpdateMu.Unlock()

	if configUpdateCh == nil {
		configUpdateCh = make(chan *ProxyConfig, 1)
	}
	return configUpdateCh
}
