package network

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidateDefaults(t *testing.T) {
	cfg := Config{Endpoints: []string{"wss://gw.example.net/ws"}}
	require.NoError(t, cfg.Validate())

	def := DefaultConfig()
	assert.Equal(t, def.ClientName, cfg.ClientName)
	assert.Equal(t, def.KeepAliveInterval, cfg.KeepAliveInterval)
	assert.Equal(t, def.BackoffBase, cfg.BackoffBase)
	assert.Equal(t, def.MaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, def.SendBurst, cfg.SendBurst)
}

func TestConfigValidateNoEndpoints(t *testing.T) {
	cfg := Config{}
	assert.ErrorIs(t, cfg.Validate(), ErrNoEndpoints)
}

func TestConfigValidateKeepsExplicit(t *testing.T) {
	cfg := Config{
		Endpoints:         []string{"wss://gw.example.net/ws"},
		KeepAliveInterval: 7 * time.Second,
		MaxAttempts:       2,
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 7*time.Second, cfg.KeepAliveInterval)
	assert.Equal(t, 2, cfg.MaxAttempts)
}

func TestDispatchTick(t *testing.T) {
	cfg := Config{SendInterval: time.Second, SendBurst: 20}
	assert.Equal(t, 50*time.Millisecond, cfg.dispatchTick())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veltalk.toml")
	data := `
endpoints = ["wss://gw1.example.net/ws", "wss://gw2.example.net/ws"]
keepalive_interval = "10s"
backoff_cap = "1m"
max_attempts = 3
auto_reconnect = false
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"wss://gw1.example.net/ws", "wss://gw2.example.net/ws"}, cfg.Endpoints)
	assert.Equal(t, 10*time.Second, cfg.KeepAliveInterval)
	assert.Equal(t, time.Minute, cfg.BackoffCap)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.False(t, cfg.AutoReconnect)

	// Untouched keys keep their defaults.
	def := DefaultConfig()
	assert.Equal(t, def.PongTimeout, cfg.PongTimeout)
	assert.Equal(t, def.SendInterval, cfg.SendInterval)
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "veltalk.toml")
	require.NoError(t, os.WriteFile(path, []byte(`keepalive_interval = "soon"`), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
