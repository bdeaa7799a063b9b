package main

import (
	"os"

	"github.com/Carmen-Shannon/oxy-editor/engine/config"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

type options struct {
	configPath string
	importPath string
	models     []string
	flags      *pflag.FlagSet

	title         string
	width, height int
	msaa          int
	presentMode   string
	frameLimit    float64
	software      bool
	profile       bool
	skeleton      string
	autosave      bool
	logLevel      string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := pflag.NewFlagSet("oxy-editor", pflag.ContinueOnError)
	fs.StringVarP(&o.configPath, "config", "c", "oxy-editor.toml", "settings file; watched for log level and frame limit changes")
	fs.StringVar(&o.importPath, "import", "", "glTF file whose first skin replaces the skeleton")
	fs.StringSliceVarP(&o.models, "model", "m", nil, "glTF or GLB models to place in the scene, repeatable")
	fs.StringVar(&o.title, "title", "", "window title")
	fs.IntVar(&o.width, "width", 0, "window width in pixels")
	fs.IntVar(&o.height, "height", 0, "window height in pixels")
	fs.IntVar(&o.msaa, "msaa", 0, "MSAA sample count (1, 4, 8 or 16)")
	fs.StringVar(&o.presentMode, "present-mode", "", "vsync or uncapped")
	fs.Float64Var(&o.frameLimit, "frame-limit", 0, "render frame cap in frames per second, 0 for none")
	fs.BoolVar(&o.software, "software", false, "force the fallback software adapter")
	fs.BoolVar(&o.profile, "profile", false, "log frame stats every second")
	fs.StringVarP(&o.skeleton, "skeleton", "s", "", "skeleton YAML file")
	fs.BoolVar(&o.autosave, "autosave", true, "save the skeleton periodically while dirty")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.flags = fs
	return o, nil
}

// loadSettings reads the settings file and applies the flags that were set on the command line.
func loadSettings(o options) (config.Settings, error) {
	s, err := config.Load(o.configPath)
	if err != nil {
		return s, err
	}

	set := func(name string, apply func()) {
		if o.flags.Changed(name) {
			apply()
		}
	}
	set("title", func() { s.Window.Title = o.title })
	set("width", func() { s.Window.Width = o.width })
	set("height", func() { s.Window.Height = o.height })
	set("msaa", func() { s.Render.MSAA = o.msaa })
	set("present-mode", func() { s.Render.PresentMode = o.presentMode })
	set("frame-limit", func() { s.Render.FrameLimit = o.frameLimit })
	set("software", func() { s.Render.ForceSoftware = o.software })
	set("profile", func() { s.Render.Profiling = o.profile })
	set("skeleton", func() { s.Editor.Skeleton = o.skeleton })
	set("autosave", func() { s.Editor.Autosave = o.autosave })
	set("log-level", func() { s.Log.Level = o.logLevel })

	if err := s.Validate(); err != nil {
		return s, errors.Wrap(err, "flags")
	}
	for _, path := range append([]string{o.importPath}, o.models...) {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return s, errors.Wrap(err, "input file")
		}
	}
	return s, nil
}
