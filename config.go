package rollout

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// KVConfig configures where configuration documents live in a NATS
// JetStream key-value bucket.
type KVConfig struct {
	// Bucket is the KV bucket holding configuration documents.
	Bucket string `yaml:"bucket"`

	// Key is the key of the active document within Bucket.
	Key string `yaml:"key"`

	// History is the number of revisions JetStream keeps per key.
	// Only used when the bucket is created.
	History uint8 `yaml:"history"`
}

// Config is the configuration for the Manager.
//
// All duration fields accept standard Go duration strings like "30s", "5m", "1h".
type Config struct {
	// HashSeed seeds subject bucketing. 0 means unseeded.
	//
	// Changing the seed reshuffles every subject in every experiment, so it
	// must stay fixed once experiments are running.
	HashSeed uint64 `yaml:"hashSeed"`

	// MaxCachedAssignments bounds the number of memoized assignments per
	// configuration version. The memo is dropped on every update.
	//
	// Default: 100000
	MaxCachedAssignments int `yaml:"maxCachedAssignments"`

	// DisableMemoization turns the per-version memo off; every lookup hashes.
	DisableMemoization bool `yaml:"disableMemoization"`

	// RefreshTimeout bounds a single Refresh call against the configuration provider.
	//
	// Default: 10 seconds
	RefreshTimeout time.Duration `yaml:"refreshTimeout"`

	// KV configures the NATS JetStream configuration source.
	KV KVConfig `yaml:"kv"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	return Config{
		HashSeed:             0,
		MaxCachedAssignments: 100_000,
		RefreshTimeout:       10 * time.Second,
		KV: KVConfig{
			Bucket:  "rollout-config",
			Key:     "features",
			History: 5,
		},
	}
}

// ApplyDefaults fills in missing configuration values with production defaults.
//
// HashSeed and DisableMemoization are left untouched; their zero values are
// meaningful.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func ApplyDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.MaxCachedAssignments == 0 {
		cfg.MaxCachedAssignments = defaults.MaxCachedAssignments
	}
	if cfg.RefreshTimeout == 0 {
		cfg.RefreshTimeout = defaults.RefreshTimeout
	}
	if cfg.KV.Bucket == "" {
		cfg.KV.Bucket = defaults.KV.Bucket
	}
	if cfg.KV.Key == "" {
		cfg.KV.Key = defaults.KV.Key
	}
	if cfg.KV.History == 0 {
		cfg.KV.History = defaults.KV.History
	}
}

// Validate checks configuration constraints and returns error for invalid values.
//
// Rules:
//   - MaxCachedAssignments >= 0
//   - RefreshTimeout > 0
//   - KV.History <= 64 (JetStream limit)
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if cfg.MaxCachedAssignments < 0 {
		return fmt.Errorf("%w: MaxCachedAssignments must be >= 0, got %d",
			ErrInvalidConfig, cfg.MaxCachedAssignments)
	}

	if cfg.RefreshTimeout <= 0 {
		return fmt.Errorf("%w: RefreshTimeout must be > 0, got %v", ErrInvalidConfig, cfg.RefreshTimeout)
	}

	if cfg.KV.History > 64 {
		return fmt.Errorf("%w: KV.History must be <= 64, got %d", ErrInvalidConfig, cfg.KV.History)
	}

	return nil
}

// memoLimit returns the effective per-version memo bound (0 = disabled).
func (cfg *Config) memoLimit() int {
	if cfg.DisableMemoization {
		return 0
	}

	return cfg.MaxCachedAssignments
}

// LoadConfig reads a YAML configuration file and applies defaults.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - Config: Loaded configuration with defaults applied
//   - error: Read, decode or validation error
//
// Example:
//
//	cfg, err := rollout.LoadConfig("rollout.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mgr, err := rollout.NewManager(&cfg)
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: decode %s: %w", ErrInvalidConfig, path, err)
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// TestConfig returns a configuration for tests: memoization stays on with a
// small bound so that eviction paths are exercised.
//
// Returns:
//   - Config: Configuration suited to unit tests
func TestConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxCachedAssignments = 1_000
	cfg.RefreshTimeout = 2 * time.Second

	return cfg
}
