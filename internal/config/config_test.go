package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Jatti045/mini-db/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillDefaults(t *testing.T) {
	cfg := &config.Config{}
	cfg.FillDefaults()

	assert.Equal(t, config.DurabilityAlways, cfg.Durability)
	assert.Greater(t, cfg.CompactBytes, int64(0))
	assert.Greater(t, cfg.CompactEntries, 0)
	assert.Equal(t, "none", cfg.SnapshotCodec)
	assert.NotNil(t, cfg.Logger)
}

func TestFillDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &config.Config{
		Durability:     config.DurabilityNever,
		CompactBytes:   -1,
		CompactEntries: 5,
	}
	cfg.FillDefaults()

	assert.Equal(t, config.DurabilityNever, cfg.Durability)
	assert.Equal(t, int64(-1), cfg.CompactBytes)
	assert.Equal(t, 5, cfg.CompactEntries)
}

func TestValidate(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Durability = "sometimes"
	assert.Error(t, cfg.Validate())

	cfg = config.DefaultConfig()
	cfg.SnapshotCodec = "zip"
	assert.Error(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(
		"durability: on-compact\ncompact_entries: 42\nsnapshot_codec: s2\n"), 0644))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, config.DurabilityOnCompact, cfg.Durability)
	assert.Equal(t, 42, cfg.CompactEntries)
	assert.Equal(t, "s2", cfg.SnapshotCodec)
	// Unset fields take defaults.
	assert.Greater(t, cfg.CompactBytes, int64(0))
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("durability: [oops\n"), 0644))

	_, err := config.LoadFile(path)
	assert.Error(t, err)

	_, err = config.LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("durability: sometimes\n"), 0644))
	_, err = config.LoadFile(path)
	assert.Error(t, err)
}
