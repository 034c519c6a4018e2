package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, loadDefaults(), cfg)
	assert.Equal(t, "localhost:8080", cfg.Server.Addr())
	assert.True(t, cfg.Game.ExitOnGameOver)
	assert.Equal(t, 64, cfg.Render.SquareSize)
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  host: 0.0.0.0
  port: 9090
  static_dir: ./web/static
development:
  debug: true
  log_level: debug
game:
  exit_on_game_over: false
render:
  square_size: 32
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := load(dir)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, "./web/static", cfg.Server.StaticDir)
	assert.True(t, cfg.Development.Debug)
	assert.Equal(t, "debug", cfg.Development.LogLevel)
	assert.False(t, cfg.Game.ExitOnGameOver)
	assert.Equal(t, 32, cfg.Render.SquareSize)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("LVICHESS_SERVER_PORT", "7070")
	t.Setenv("LVICHESS_GAME_EXIT_ON_GAME_OVER", "false")

	cfg, err := load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.False(t, cfg.Game.ExitOnGameOver)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("port", func(t *testing.T) {
		t.Setenv("LVICHESS_SERVER_PORT", "70000")
		_, err := load(t.TempDir())
		assert.Error(t, err)
	})
	t.Run("square size", func(t *testing.T) {
		t.Setenv("LVICHESS_RENDER_SQUARE_SIZE", "4")
		_, err := load(t.TempDir())
		assert.Error(t, err)
	})
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))

	_, err := load(dir)
	assert.Error(t, err)
}
