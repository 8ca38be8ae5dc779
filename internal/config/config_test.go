package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is the pre-Go 1.24 equivalent of t.Chdir.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadServerDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadServer("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 60, cfg.TickRate)
	assert.Equal(t, 64, cfg.MaxPlayers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.JournalDir)
}

func TestLoadServerFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  listen_addr: ":9999"
  level_path: levels/ruins.yaml
  tick_rate: 30
  journal_dir: /tmp/journals
  name_pool: [Littlepip, Calamity]
`), 0o644))

	cfg, err := LoadServer(path)
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "levels/ruins.yaml", cfg.LevelPath)
	assert.Equal(t, 30, cfg.TickRate)
	assert.Equal(t, "/tmp/journals", cfg.JournalDir)
	assert.Equal(t, []string{"Littlepip", "Calamity"}, cfg.NamePool)
}

func TestLoadServerRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  tick_rate: -1\n"), 0o644))

	_, err := LoadServer(path)
	assert.Error(t, err)
}

func TestLoadServerMissingExplicitFile(t *testing.T) {
	_, err := LoadServer(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadClientDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadClient("")
	require.NoError(t, err)

	assert.Equal(t, "ws://127.0.0.1:8080/ws", cfg.ServerURL)
	assert.Equal(t, "levels", cfg.LevelDir)
	assert.Empty(t, cfg.Name)
}

func TestEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HEXTACTICS_SERVER_LISTEN_ADDR", ":7777")

	cfg, err := LoadServer("")
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.ListenAddr)
}
