package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/manifest"
	"github.com/pkwap/pkscreen/render/csv"
	"github.com/pkwap/pkscreen/screen"
)

func manifestCmd() *cli.Command {
	return &cli.Command{
		Name:  "manifest",
		Usage: "Inspect or rebuild an output directory's manifest.json",
		Commands: []*cli.Command{
			manifestShowCmd(),
			manifestRepairCmd(),
		},
	}
}

func manifestShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "List the files a run wrote",
		ArgsUsage: "<dir>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				return fmt.Errorf("missing <dir>")
			}
			m, err := manifest.ReadFile(filepath.Join(dir, manifest.FileName))
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}
			if m.RunID == "" && len(m.Entries) == 0 {
				return fmt.Errorf("%s has no manifest (try 'pks manifest repair')", dir)
			}

			w := stdout(cmd)
			fmt.Fprintf(w, "run %s  input %s  %d transcripts, %d flagged\n", m.RunID, m.Input, m.Transcripts, m.Flagged)
			for _, e := range m.Entries {
				fmt.Fprintf(w, "  %-10s %8d  %s\n", e.Kind, e.Bytes, e.Path)
			}
			return nil
		},
	}
}

func manifestRepairCmd() *cli.Command {
	return &cli.Command{
		Name:      "repair",
		Usage:     "Rebuild manifest.json by scanning the output directory",
		ArgsUsage: "<dir>",
		Description: `Scans an output directory for the files a screening run writes and
rebuilds the manifest entries from scratch. The run id, start time and
input of an existing manifest are kept.`,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				return fmt.Errorf("missing <dir>")
			}
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			m, err := repairManifest(dir, cfg.Precision)
			if err != nil {
				return err
			}
			if err := m.WriteFile(filepath.Join(dir, manifest.FileName)); err != nil {
				return fmt.Errorf("write manifest: %w", err)
			}
			fmt.Fprintf(stdout(cmd), "manifest rebuilt: %d files\n", len(m.Entries))
			return nil
		},
	}
}

// outputKinds maps the fixed output file names to manifest kinds.
var outputKinds = map[string]string{
	csv.SummaryFile:   "summary",
	csv.PagesFile:     "pages",
	csv.CompareFile:   "compare",
	screen.LogFile:    "log",
	screen.ReportFile: "report",
	screen.JSONFile:   "json",
}

// repairManifest rebuilds the manifest of dir from the files present.
func repairManifest(dir string, precision int) (*manifest.Manifest, error) {
	old, err := manifest.ReadFile(filepath.Join(dir, manifest.FileName))
	if err != nil {
		// a corrupt manifest is what repair is for
		old = &manifest.Manifest{}
	}
	m := &manifest.Manifest{RunID: old.RunID, StartedAt: old.StartedAt, Input: old.Input}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read output directory: %w", err)
	}
	for _, e := range entries {
		kind, ok := outputKinds[e.Name()]
		if !ok || e.IsDir() {
			continue
		}
		if err := addEntry(m, dir, e.Name(), kind); err != nil {
			return nil, err
		}
	}

	annotatedEntries, err := os.ReadDir(filepath.Join(dir, screen.AnnotatedDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read annotated directory: %w", err)
	}
	for _, e := range annotatedEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		if err := addEntry(m, dir, filepath.Join(screen.AnnotatedDir, e.Name()), "annotated"); err != nil {
			return nil, err
		}
	}

	if m.Count("summary") > 0 {
		rows, err := csv.Load(filepath.Join(dir, csv.SummaryFile), precision)
		if err != nil {
			return nil, err
		}
		m.Transcripts = len(rows)
		for _, r := range rows {
			if r.Status != core.StatusOK {
				m.Flagged++
			}
		}
	}
	return m, nil
}

func addEntry(m *manifest.Manifest, dir, rel, kind string) error {
	info, err := os.Stat(filepath.Join(dir, rel))
	if err != nil {
		return err
	}
	m.Upsert(manifest.Entry{Path: rel, Kind: kind, Bytes: info.Size()})
	return nil
}
