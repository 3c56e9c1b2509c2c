package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/pkwap/pkscreen/aggregate"
	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/manifest"
	"github.com/pkwap/pkscreen/reader/text"
	"github.com/pkwap/pkscreen/reconcile"
	"github.com/pkwap/pkscreen/render"
	"github.com/pkwap/pkscreen/render/csv"
	"github.com/pkwap/pkscreen/render/terminal"
	"github.com/pkwap/pkscreen/screen"
)

func recountCmd() *cli.Command {
	return &cli.Command{
		Name:      "recount",
		Usage:     "Recount annotated transcripts, e.g. after hand correction",
		ArgsUsage: "<dir>",
		Description: `Reads the [AI] / [STUDENT] / [UNK] tags of every annotated transcript in
<dir> (or <dir>/annotated when <dir> is a screening output directory) and
rebuilds the summaries from the tags alone. With --against the recount is
compared with an earlier summary.csv or output directory.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write summary.csv and pages.csv of the recount to this directory",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing output in --out",
			},
			&cli.StringFlag{
				Name:  "against",
				Usage: "summary.csv or output directory to compare the recount with",
			},
			&cli.FloatFlag{
				Name:  "tolerance",
				Usage: "Match tolerance in percentage points (default: config)",
				Value: -1,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				return fmt.Errorf("missing <dir>: a directory of annotated transcripts")
			}
			if info, err := os.Stat(filepath.Join(dir, screen.AnnotatedDir)); err == nil && info.IsDir() {
				dir = filepath.Join(dir, screen.AnnotatedDir)
			}

			cfg, rules, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			rep, err := recountDir(reconcile.NewRecounter(rules), dir, cfg.Precision)
			if err != nil {
				return err
			}
			if err := reconcile.Validate(rep.Summaries, cfg.Precision); err != nil {
				return fmt.Errorf("recount: %w", err)
			}

			if out := cmd.String("out"); out != "" {
				if err := writeSummaryCSVs(out, rep, cmd.Bool("force")); err != nil {
					return err
				}
			}

			w := stdout(cmd)
			against := cmd.String("against")
			if against == "" {
				return terminal.New().Render(w, rep)
			}
			base, err := csv.Load(against, cfg.Precision)
			if err != nil {
				return err
			}
			opts := reconcile.Options{Tolerance: cfg.Tolerance, Precision: cfg.Precision}
			if t := cmd.Float("tolerance"); t >= 0 {
				opts.Tolerance = t
			}
			return terminal.New().RenderComparison(w, reconcile.Compare(base, rep.Summaries, opts), opts)
		},
	}
}

// recountDir recounts every annotated transcript in dir. A file that cannot
// be read or counted becomes an error row.
func recountDir(rc *reconcile.Recounter, dir string, precision int) (*render.Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read annotated directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") && !strings.HasPrefix(e.Name(), ".") {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", screen.ErrNoTranscripts, dir)
	}
	sort.Strings(paths)

	rep := &render.Report{Input: dir, Precision: precision}
	for _, p := range paths {
		src, err := text.Reader{}.ReadFile(p)
		if err != nil {
			ns := core.NewSource(p, "")
			id := reconcile.TranscriptID(ns.ID)
			log.Error("recount failed", "file", p, "err", err)
			rep.Summaries = append(rep.Summaries, aggregate.ErrorSummary(id, id+".txt", err))
			continue
		}
		s, anomalies, err := rc.Recount(src)
		if err != nil {
			log.Error("recount failed", "file", p, "err", err)
		}
		rep.Summaries = append(rep.Summaries, s)
		rep.Anomalies = append(rep.Anomalies, anomalies...)
	}
	aggregate.Sort(rep.Summaries)
	return rep, nil
}

// writeSummaryCSVs writes summary.csv and pages.csv of rep into dir.
func writeSummaryCSVs(dir string, rep *render.Report, force bool) error {
	if !force {
		if err := manifest.CheckOutput(dir); err != nil {
			return err
		}
	}
	files := []struct {
		name string
		r    render.Renderer
	}{
		{csv.SummaryFile, csv.SummaryRenderer{}},
		{csv.PagesFile, csv.PagesRenderer{}},
	}
	var errs []error
	for _, f := range files {
		var buf bytes.Buffer
		if err := f.r.Render(&buf, rep); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := manifest.WriteAtomic(filepath.Join(dir, f.name), buf.Bytes()); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", f.name, err))
		}
	}
	return errors.Join(errs...)
}
