package rollout

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, uint64(0), cfg.HashSeed)
	require.Equal(t, 100_000, cfg.MaxCachedAssignments)
	require.False(t, cfg.DisableMemoization)
	require.Equal(t, 10*time.Second, cfg.RefreshTimeout)
	require.Equal(t, "rollout-config", cfg.KV.Bucket)
	require.Equal(t, "features", cfg.KV.Key)
	require.Equal(t, uint8(5), cfg.KV.History)
	require.NoError(t, cfg.Validate())
}

func TestApplyDefaults(t *testing.T) {
	t.Run("applies defaults to empty config", func(t *testing.T) {
		cfg := Config{}
		ApplyDefaults(&cfg)

		require.Equal(t, 100_000, cfg.MaxCachedAssignments)
		require.Equal(t, 10*time.Second, cfg.RefreshTimeout)
		require.Equal(t, "rollout-config", cfg.KV.Bucket)
	})

	t.Run("preserves custom values", func(t *testing.T) {
		cfg := Config{
			HashSeed:             42,
			MaxCachedAssignments: 10,
			DisableMemoization:   true,
			RefreshTimeout:       time.Second,
			KV:                   KVConfig{Bucket: "flags", Key: "prod", History: 1},
		}
		ApplyDefaults(&cfg)

		require.Equal(t, uint64(42), cfg.HashSeed)
		require.Equal(t, 10, cfg.MaxCachedAssignments)
		require.True(t, cfg.DisableMemoization)
		require.Equal(t, time.Second, cfg.RefreshTimeout)
		require.Equal(t, KVConfig{Bucket: "flags", Key: "prod", History: 1}, cfg.KV)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative memo bound", func(c *Config) { c.MaxCachedAssignments = -1 }},
		{"zero refresh timeout", func(c *Config) { c.RefreshTimeout = 0 }},
		{"history too large", func(c *Config) { c.KV.History = 65 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_MemoLimit(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 100_000, cfg.memoLimit())

	cfg.DisableMemoization = true
	require.Equal(t, 0, cfg.memoLimit())
}

func TestConfig_YAML(t *testing.T) {
	raw := `
hashSeed: 7
maxCachedAssignments: 500
refreshTimeout: 3s
kv:
  bucket: flags
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))
	ApplyDefaults(&cfg)

	require.Equal(t, uint64(7), cfg.HashSeed)
	require.Equal(t, 500, cfg.MaxCachedAssignments)
	require.Equal(t, 3*time.Second, cfg.RefreshTimeout)
	require.Equal(t, "flags", cfg.KV.Bucket)
	require.Equal(t, "features", cfg.KV.Key)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("hashSeed: 9\ndisableMemoization: true\n"), 0o600))

	cfg, err := LoadConfig(good)
	require.NoError(t, err)
	require.Equal(t, uint64(9), cfg.HashSeed)
	require.True(t, cfg.DisableMemoization)
	require.Equal(t, 10*time.Second, cfg.RefreshTimeout)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("maxCachedAssignments: -5\n"), 0o600))
	_, err = LoadConfig(bad)
	require.ErrorIs(t, err, ErrInvalidConfig)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("hashSeed: [\n"), 0o600))
	_, err = LoadConfig(broken)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()
	require.Equal(t, 1_000, cfg.MaxCachedAssignments)
	require.NoError(t, cfg.Validate())
}
