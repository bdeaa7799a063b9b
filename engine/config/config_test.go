package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"log/slog"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDecodeOverridesDefaults(t *testing.T) {
	s, err := Decode([]byte(`
[render]
msaa = 8
present_mode = "uncapped"

[editor]
autosave_interval = "250ms"

[log]
level = "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, 8, s.Render.MSAA)
	assert.Equal(t, "uncapped", s.Render.PresentMode)
	assert.Equal(t, 250*time.Millisecond, s.Editor.AutosaveInterval.Duration)
	assert.Equal(t, 1280, s.Window.Width, "unset fields keep defaults")
	assert.Equal(t, [4]float64{0.1, 0.1, 0.1, 1.0}, s.Render.ClearColor)
}

func TestValidateRejects(t *testing.T) {
	for name, mutate := range map[string]func(*Settings){
		"msaa":         func(s *Settings) { s.Render.MSAA = 2 },
		"present mode": func(s *Settings) { s.Render.PresentMode = "mailbox" },
		"window":       func(s *Settings) { s.Window.Width = 0 },
		"frame limit":  func(s *Settings) { s.Render.FrameLimit = -1 },
		"autosave":     func(s *Settings) { s.Editor.AutosaveInterval = Duration{} },
		"log level":    func(s *Settings) { s.Log.Level = "loud" },
	} {
		t.Run(name, func(t *testing.T) {
			s := Default()
			mutate(&s)
			assert.True(t, errors.Is(s.Validate(), ErrInvalidSettings))
		})
	}
}

func TestDecodeRejectsUnknownAndInvalid(t *testing.T) {
	_, err := Decode([]byte("[render]\nmsaa = 3\n"))
	assert.True(t, errors.Is(err, ErrInvalidSettings))

	_, err = Decode([]byte("[render]\nbogus = 1\n"))
	assert.Error(t, err)

	_, err = Decode([]byte("[editor]\nautosave_interval = \"soon\"\n"))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxy-editor.toml")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), s, "missing file yields defaults")

	s.Window.Title = "rig"
	s.Render.FrameLimit = 144
	s.Editor.AutosaveInterval = Duration{time.Minute}
	require.NoError(t, Save(path, s))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)
}

func TestWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxy-editor.toml")
	require.NoError(t, Save(path, Default()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var level atomic.Value
	require.NoError(t, Watch(ctx, path, nil, func(s Settings) { level.Store(s.Log.Level) }))

	// an invalid write is skipped
	require.NoError(t, os.WriteFile(path, []byte("[render]\nmsaa = 3\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o644))

	assert.Eventually(t, func() bool {
		v, _ := level.Load().(string)
		return v == "debug"
	}, 5*time.Second, 20*time.Millisecond)
}
