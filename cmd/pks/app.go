package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/pkwap/pkscreen/config"
	"github.com/pkwap/pkscreen/reader"
	"github.com/pkwap/pkscreen/reader/html"
	"github.com/pkwap/pkscreen/reader/jsonl"
	"github.com/pkwap/pkscreen/reader/text"
	"github.com/pkwap/pkscreen/render"
	"github.com/pkwap/pkscreen/render/csv"
	htmlrender "github.com/pkwap/pkscreen/render/html"
	jsonrender "github.com/pkwap/pkscreen/render/json"
	"github.com/pkwap/pkscreen/render/terminal"
	"github.com/pkwap/pkscreen/store"
)

// app holds reader and renderer registries used by CLI commands.
type app struct {
	readers   []reader.Reader
	renderers map[string]func() render.Renderer
}

func newApp() *app {
	return &app{
		readers: []reader.Reader{text.Reader{}, html.Reader{}, jsonl.Reader{}},
		renderers: map[string]func() render.Renderer{
			"terminal": func() render.Renderer { return terminal.New() },
			"html":     func() render.Renderer { return htmlrender.New() },
			"json":     func() render.Renderer { return jsonrender.Renderer{Indent: true} },
			"csv":      func() render.Renderer { return csv.SummaryRenderer{} },
		},
	}
}

func (a *app) registry() *reader.Registry {
	return reader.NewRegistry(a.readers...)
}

func (a *app) renderer(name string) (render.Renderer, error) {
	if name == "none" {
		return nil, nil
	}
	fn, ok := a.renderers[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", name)
	}
	return fn(), nil
}

// stdout is where commands print; tests swap the root writer.
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// configPath resolves --config, falling back to config.yaml in the user
// config directory.
func configPath(cmd *cli.Command) (string, error) {
	if p := cmd.String("config"); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "pkscreen", "config.yaml"), nil
}

// loadConfig reads, validates and compiles the configuration. A missing file
// yields the defaults.
func loadConfig(cmd *cli.Command) (*config.Config, *config.Rules, error) {
	path, err := configPath(cmd)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	rules, err := cfg.Compile()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, rules, nil
}

// openStore opens the run history at --db or the default location.
func openStore(cmd *cli.Command) (*store.Store, error) {
	path := cmd.String("db")
	if path == "" {
		var err error
		if path, err = store.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return store.Open(path)
}
