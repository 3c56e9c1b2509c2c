package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/pkwap/pkscreen/core"
	"github.com/pkwap/pkscreen/manifest"
	"github.com/pkwap/pkscreen/reconcile"
	"github.com/pkwap/pkscreen/render/csv"
	"github.com/pkwap/pkscreen/render/terminal"
	"github.com/pkwap/pkscreen/store"
)

// runPrefix forces a compare argument to be read from the run history.
const runPrefix = "run:"

func compareCmd() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare two screening runs, or a run and a hand count",
		ArgsUsage: "<a> <b>",
		Description: `Each side is a summary.csv (a hand-count sheet in the same columns works),
a screening output directory, or a run id (or unique prefix) from the run
history, optionally written as run:<id>. Transcripts and pages whose
student share differs by more than --tolerance points are discrepancies.
Nothing is resolved; the comparison is only reported.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write compare.csv to this file or directory",
			},
			&cli.FloatFlag{
				Name:  "tolerance",
				Usage: "Match tolerance in percentage points (default: config)",
				Value: -1,
			},
			&cli.BoolFlag{
				Name:  "fail",
				Usage: "Exit with status 1 when any transcript is a discrepancy",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("compare needs exactly two sides, got %d", cmd.NArg())
			}
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			opts := reconcile.Options{Tolerance: cfg.Tolerance, Precision: cfg.Precision}
			if t := cmd.Float("tolerance"); t >= 0 {
				opts.Tolerance = t
			}

			sides := &sideLoader{cmd: cmd, precision: cfg.Precision}
			defer sides.close()
			a, err := sides.load(ctx, cmd.Args().Get(0))
			if err != nil {
				return err
			}
			b, err := sides.load(ctx, cmd.Args().Get(1))
			if err != nil {
				return err
			}

			rows := reconcile.Compare(a, b, opts)
			if out := cmd.String("out"); out != "" {
				if err := writeComparison(out, rows, opts.Precision); err != nil {
					return err
				}
			}
			if err := terminal.New().RenderComparison(stdout(cmd), rows, opts); err != nil {
				return err
			}

			if _, discrepancies := reconcile.Tally(rows); discrepancies > 0 && cmd.Bool("fail") {
				return cli.Exit(fmt.Sprintf("%d discrepancies", discrepancies), 1)
			}
			return nil
		},
	}
}

// sideLoader reads compare sides, opening the run history only when a side
// is not a path.
type sideLoader struct {
	cmd       *cli.Command
	precision int
	st        *store.Store
}

func (l *sideLoader) load(ctx context.Context, arg string) ([]core.TranscriptSummary, error) {
	if !strings.HasPrefix(arg, runPrefix) {
		if _, err := os.Stat(arg); err == nil {
			return csv.Load(arg, l.precision)
		}
	}
	if l.st == nil {
		st, err := openStore(l.cmd)
		if err != nil {
			return nil, err
		}
		l.st = st
	}
	rep, err := l.st.LoadRun(ctx, strings.TrimPrefix(arg, runPrefix))
	if errors.Is(err, store.ErrRunNotFound) {
		return nil, fmt.Errorf("%s is neither a file nor a recorded run: %w", arg, err)
	}
	if err != nil {
		return nil, err
	}
	return rep.Summaries, nil
}

func (l *sideLoader) close() {
	if l.st != nil {
		l.st.Close()
	}
}

// writeComparison writes compare.csv to path, or into path when it is a
// directory.
func writeComparison(path string, rows []reconcile.Comparison, precision int) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, csv.CompareFile)
	}
	var buf bytes.Buffer
	if err := csv.WriteComparison(&buf, rows, precision); err != nil {
		return err
	}
	if err := manifest.WriteAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
