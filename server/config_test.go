package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, time.Millisecond, cfg.TickInterval())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("GRIDSYNC_PEERS", "4")
	t.Setenv("GRIDSYNC_NET_HZ", "50")
	t.Setenv("GRIDSYNC_BLANK_GRID", "true")
	t.Setenv("GRIDSYNC_HANDSHAKE_TIMEOUT", "250ms")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Peers)
	assert.Equal(t, 50, cfg.NetHz)
	assert.True(t, cfg.BlankGrid)
	assert.Equal(t, 250*time.Millisecond, cfg.HandshakeTimeout)
	assert.Equal(t, 20*time.Millisecond, cfg.TickInterval())
}

func TestLoadConfigFromDotEnv(t *testing.T) {
	// 先登记以便测试结束后还原，再清掉让 .env 生效
	t.Setenv("GRIDSYNC_BUS_CAPACITY", "x")
	require.NoError(t, os.Unsetenv("GRIDSYNC_BUS_CAPACITY"))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GRIDSYNC_BUS_CAPACITY=16\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.BusCapacity)
}

func TestLoadConfigBadValue(t *testing.T) {
	t.Setenv("GRIDSYNC_PEERS", "many")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"no peers":     func(c *Config) { c.Peers = 0 },
		"zero hz":      func(c *Config) { c.NetHz = 0 },
		"zero bus":     func(c *Config) { c.BusCapacity = 0 },
		"negative map": func(c *Config) { c.GridWidth = -1 },
		"no timeout":   func(c *Config) { c.HandshakeTimeout = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
