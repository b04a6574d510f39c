package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/halvard/affinityctl/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "affinityctl", "settings.toml")

	in := settings.Settings{Pause: true, AutoHeavy: true}
	require.NoError(t, settings.SaveTo(in, path))

	out := settings.LoadFrom(path)
	assert.Equal(t, in, out)
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.toml")

	out := settings.LoadFrom(path)
	assert.Equal(t, settings.Default(), out)
}

func TestLoadCorruptFileGivesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("not toml at all ==="), 0o600))

	out := settings.LoadFrom(path)
	assert.Equal(t, settings.Default(), out)
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	require.NoError(t, settings.SaveTo(settings.Settings{Pause: true}, path))
	require.NoError(t, settings.SaveTo(settings.Settings{AutoHeavy: true}, path))

	out := settings.LoadFrom(path)
	assert.False(t, out.Pause)
	assert.True(t, out.AutoHeavy)
}
