package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/pkwap/pkscreen/compact"
	"github.com/pkwap/pkscreen/screen"
)

func screenCmd() *cli.Command {
	return &cli.Command{
		Name:      "screen",
		Usage:     "Screen a directory of transcripts",
		ArgsUsage: "<input>",
		Description: `Screens every supported transcript directly inside <input> (or <input>
itself when it is a file) and writes summary.csv, pages.csv, run.log,
annotated/ and manifest.json to --out. A failing transcript becomes an
error row; the run continues with the rest of the corpus.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Output directory",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite the output of a previous run in --out",
			},
			&cli.BoolFlag{
				Name:  "redact",
				Usage: "Mask emails, phone numbers and configured names in annotated transcripts",
			},
			&cli.BoolFlag{
				Name:  "html",
				Usage: "Write report.html",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Write report.json",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Transcripts screened in parallel (default: config, then one per CPU)",
			},
			&cli.IntFlag{
				Name:  "context",
				Usage: "Lines of context around each line to review in report.html",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "review-heuristic",
				Usage: "Also list heuristically attributed lines for review",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record the run in the history database",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Summary printed to stdout: terminal, json, csv, none",
				Value: "terminal",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			input := cmd.Args().First()
			if input == "" {
				return fmt.Errorf("missing <input>: a transcript directory or file")
			}

			a := newApp()
			rnd, err := a.renderer(cmd.String("format"))
			if err != nil {
				return err
			}

			cfg, rules, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if n := cmd.Int("workers"); n > 0 {
				cfg.Workers = n
			}

			runner := screen.New(cfg, rules, a.registry(),
				screen.WithLogger(log.Default()),
				screen.WithReview(compact.Config{
					Context:   cmd.Int("context"),
					Heuristic: cmd.Bool("review-heuristic"),
					MaxLines:  40,
				}),
			)
			rep, err := runner.Screen(ctx, screen.Options{
				Input:  input,
				OutDir: cmd.String("out"),
				Force:  cmd.Bool("force"),
				Redact: cmd.Bool("redact"),
				HTML:   cmd.Bool("html"),
				JSON:   cmd.Bool("json"),
			})
			if err != nil {
				return err
			}

			if !cmd.Bool("no-history") {
				st, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer st.Close()
				if _, err := st.SaveRun(ctx, rep); err != nil {
					return err
				}
				log.Debug("run recorded", "run", rep.RunID)
			}

			if rnd == nil {
				return nil
			}
			return rnd.Render(stdout(cmd), rep)
		},
	}
}
