package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(path, []byte(`{
  "server": {"host": "0.0.0.0", "port": 9000},
  "journal": {"enabled": false},
  "natural_sort": true,
  "log_level": "debug"
}`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Addr())
	assert.False(t, cfg.Journal.Enabled)
	assert.True(t, cfg.NaturalSort)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DefaultSidecarName, cfg.SidecarName)
	assert.NotEmpty(t, cfg.Journal.Path)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestResolveFallsBackToDefaults(t *testing.T) {
	t.Setenv("KAMBIOS_CONFIG", filepath.Join(t.TempDir(), "absent.json"))

	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, Default().Addr(), cfg.Addr())
	assert.True(t, cfg.Journal.Enabled)
}

func TestResolveExplicitMissing(t *testing.T) {
	_, err := Resolve(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
