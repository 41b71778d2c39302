package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.RPC.Host)
	assert.Equal(t, 8832, cfg.RPC.Port)
	assert.Equal(t, 15, cfg.RPC.TimeoutSeconds)
	assert.Equal(t, "Baseline", cfg.Display.NetworkName)
	assert.Equal(t, byte(0x35), cfg.Display.AddressVersion)
	assert.Equal(t, "http://127.0.0.1:8832", cfg.RPC.URL())
	assert.False(t, cfg.Index.Enabled)
	assert.Equal(t, 10, cfg.Index.PollInterval)

	// Derived page sizes backfill from display defaults.
	assert.Equal(t, cfg.Display.RecentBlocks, cfg.Display.BlocksPerPage)
	assert.Equal(t, 25, cfg.Display.RichListPerPage)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.NoError(t, err)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
rpc:
  host: node.internal
  port: 18832
  username: user
  password: pass
  use_https: true
display:
  network_name: Baseline Testnet
  blocks_per_page: 50
index:
  enabled: true
  path: /var/lib/explorer
  start_height: 1000
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "https://node.internal:18832", cfg.RPC.URL())
	assert.Equal(t, "user", cfg.RPC.Username)
	assert.Equal(t, "Baseline Testnet", cfg.Display.NetworkName)
	assert.Equal(t, 50, cfg.Display.BlocksPerPage)
	assert.True(t, cfg.Index.Enabled)
	assert.Equal(t, int64(1000), cfg.Index.StartHeight)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{nope"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("BASELINE_RPC_HOST", "10.0.0.5")
	t.Setenv("BASELINE_RPC_PORT", "28832")
	t.Setenv("BASELINE_RPC_USER", "envuser")
	t.Setenv("BASELINE_RPC_PASS", "envpass")
	t.Setenv("INDEX_ENABLED", "true")
	t.Setenv("INDEX_START_HEIGHT", "42")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "10.0.0.5", cfg.RPC.Host)
	assert.Equal(t, 28832, cfg.RPC.Port)
	assert.Equal(t, "envuser", cfg.RPC.Username)
	assert.Equal(t, "envpass", cfg.RPC.Password)
	assert.True(t, cfg.Index.Enabled)
	assert.Equal(t, int64(42), cfg.Index.StartHeight)
}

func TestEnvIgnoresGarbageNumbers(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}
