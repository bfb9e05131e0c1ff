package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 250.0, cfg.RadioRangeR)
	require.Equal(t, 450.0, cfg.MaxClusterRadius)
	require.Equal(t, 2, cfg.MinClusterSize)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.yaml")

	cfg := DefaultConfig()
	cfg.MaxClusterSize = 6
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 6, loaded.MaxClusterSize)
}

func TestValidateRejectsBadRanges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinClusterSize = 1
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MaxClusterSize = 1
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.PoAFlagFraction = 0
	require.Error(t, cfg.Validate())
}
