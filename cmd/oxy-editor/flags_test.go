package main

import (
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-editor/engine/config"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxy-editor.toml")
	file := config.Default()
	file.Render.MSAA = 8
	file.Log.Level = "warn"
	require.NoError(t, config.Save(path, file))

	o, err := parseFlags([]string{"--config", path, "--log-level", "debug", "--autosave=false"})
	require.NoError(t, err)
	s, err := loadSettings(o)
	require.NoError(t, err)

	assert.Equal(t, 8, s.Render.MSAA, "unset flag keeps the file value")
	assert.Equal(t, "debug", s.Log.Level)
	assert.False(t, s.Editor.Autosave)
}

func TestInvalidFlagValue(t *testing.T) {
	o, err := parseFlags([]string{"-c", filepath.Join(t.TempDir(), "missing.toml"), "--msaa", "3"})
	require.NoError(t, err)
	_, err = loadSettings(o)
	assert.True(t, errors.Is(err, config.ErrInvalidSettings))

	_, err = parseFlags([]string{"--nope"})
	assert.Error(t, err)
}
