package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

func newRootCmd() *cli.Command {
	return &cli.Command{
		Name:  "pks",
		Usage: "Screen student-AI dialogue transcripts into per-speaker word counts",
		Description: `Reads a corpus of transcripts, attributes every line to the student, the AI
or nobody, counts comparable word units per page and writes summary.csv,
pages.csv, annotated transcripts and a run log. Runs are kept in a local
history so later runs and hand counts can be compared against them.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log level: debug, info, warn, error",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file (default: user config dir)",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path to the run history database (default: user config dir)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level, err := log.ParseLevel(cmd.String("log"))
			if err != nil {
				return ctx, err
			}
			log.SetLevel(level)
			return ctx, nil
		},
		Commands: []*cli.Command{
			screenCmd(),
			recountCmd(),
			compareCmd(),
			historyCmd(),
			manifestCmd(),
			configCmd(),
		},
	}
}
