package config

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// ErrInvalidSettings is returned by Validate and wraps every rejected field.
var ErrInvalidSettings = errors.New("config: invalid settings")

// Settings is the oxy-editor.toml file.
type Settings struct {
	Window WindowSettings `toml:"window"`
	Render RenderSettings `toml:"render"`
	Editor EditorSettings `toml:"editor"`
	Log    LogSettings    `toml:"log"`
}

type WindowSettings struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

type RenderSettings struct {
	MSAA          int        `toml:"msaa"`
	PresentMode   string     `toml:"present_mode"`
	FrameLimit    float64    `toml:"frame_limit"`
	ForceSoftware bool       `toml:"force_software"`
	ClearColor    [4]float64 `toml:"clear_color"`
	Profiling     bool       `toml:"profiling"`
}

type EditorSettings struct {
	Skeleton         string   `toml:"skeleton"`
	Autosave         bool     `toml:"autosave"`
	AutosaveInterval Duration `toml:"autosave_interval"`
}

type LogSettings struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a Go duration string such as "5s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "duration %q", text)
	}
	d.Duration = v
	return nil
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{
		Window: WindowSettings{Title: "oxy-editor", Width: 1280, Height: 720},
		Render: RenderSettings{
			MSAA:        4,
			PresentMode: "vsync",
			ClearColor:  [4]float64{0.1, 0.1, 0.1, 1.0},
		},
		Editor: EditorSettings{
			Skeleton:         "skeleton.yaml",
			Autosave:         true,
			AutosaveInterval: Duration{5 * time.Second},
		},
		Log: LogSettings{Level: "info"},
	}
}

// Validate checks value ranges. Zero window sizes and unknown enum strings are rejected.
//
// Returns:
//   - error: an error wrapping ErrInvalidSettings naming the first bad field
func (s Settings) Validate() error {
	switch {
	case s.Window.Width <= 0 || s.Window.Height <= 0:
		return errors.Wrapf(ErrInvalidSettings, "window size %dx%d", s.Window.Width, s.Window.Height)
	case s.Render.MSAA != 1 && s.Render.MSAA != 4 && s.Render.MSAA != 8 && s.Render.MSAA != 16:
		return errors.Wrapf(ErrInvalidSettings, "render.msaa %d not in {1, 4, 8, 16}", s.Render.MSAA)
	case s.Render.PresentMode != "vsync" && s.Render.PresentMode != "uncapped":
		return errors.Wrapf(ErrInvalidSettings, "render.present_mode %q", s.Render.PresentMode)
	case s.Render.FrameLimit < 0:
		return errors.Wrapf(ErrInvalidSettings, "render.frame_limit %v", s.Render.FrameLimit)
	case s.Editor.Autosave && s.Editor.AutosaveInterval.Duration <= 0:
		return errors.Wrapf(ErrInvalidSettings, "editor.autosave_interval %v", s.Editor.AutosaveInterval)
	}
	if _, err := ParseLevel(s.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log.level value to a slog level.
//
// Parameters:
//   - level: one of debug, info, warn, error (case-insensitive)
//
// Returns:
//   - slog.Level: the level
//   - error: an error wrapping ErrInvalidSettings for other values
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, errors.Wrapf(ErrInvalidSettings, "log.level %q", level)
	}
}

// Decode parses TOML over the defaults, so a partial file only overrides what it names.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Settings: the merged settings
//   - error: error if parsing or validation fails
func Decode(data []byte) (Settings, error) {
	s := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Settings{}, errors.Wrap(err, "decode settings")
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Load reads settings from path. A missing file yields the defaults.
//
// Parameters:
//   - path: the settings file
//
// Returns:
//   - Settings: the loaded settings
//   - error: error if the file exists but cannot be read or is invalid
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, errors.Wrapf(err, "load settings %s", path)
	}
	s, err := Decode(data)
	if err != nil {
		return Settings{}, errors.Wrapf(err, "load settings %s", path)
	}
	return s, nil
}

// Save writes settings to path as TOML.
//
// Parameters:
//   - path: the settings file
//   - s: the settings
//
// Returns:
//   - error: error if validation, encoding or writing fails
func Save(path string, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode settings")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "save settings %s", path)
}
