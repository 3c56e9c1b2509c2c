package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/pkwap/pkscreen/render/terminal"
)

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded screening runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Show at most this many runs",
				Value:   20,
			},
		},
		Commands: []*cli.Command{
			historyShowCmd(),
			historyRemoveCmd(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(ctx, cmd.Int("limit"))
			if err != nil {
				return err
			}
			return terminal.New().RenderHistory(stdout(cmd), runs)
		},
	}
}

func historyShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a recorded run",
		ArgsUsage: "<run-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Usage: "Output format: terminal, html, json, csv",
				Value: "terminal",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("missing <run-id>")
			}
			rnd, err := newApp().renderer(cmd.String("format"))
			if err != nil {
				return err
			}
			if rnd == nil {
				return nil
			}

			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			rep, err := st.LoadRun(ctx, id)
			if err != nil {
				return err
			}
			return rnd.Render(stdout(cmd), rep)
		},
	}
}

func historyRemoveCmd() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Usage:     "Delete a recorded run",
		ArgsUsage: "<run-id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			prefix := cmd.Args().First()
			if prefix == "" {
				return fmt.Errorf("missing <run-id>")
			}
			st, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			id, err := st.Resolve(ctx, prefix)
			if err != nil {
				return err
			}
			if err := st.DeleteRun(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "deleted run %s\n", id)
			return nil
		},
	}
}
