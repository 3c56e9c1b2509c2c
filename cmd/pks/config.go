package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/pkwap/pkscreen/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as YAML",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = stdout(cmd).Write(data)
			return err
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write the default configuration to the config path",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path, err := configPath(cmd)
					if err != nil {
						return err
					}
					if _, err := os.Stat(path); err == nil && !cmd.Bool("force") {
						return fmt.Errorf("%s already exists (use --force to overwrite)", path)
					} else if err != nil && !errors.Is(err, os.ErrNotExist) {
						return err
					}
					if err := config.Default().Save(path); err != nil {
						return err
					}
					fmt.Fprintf(stdout(cmd), "wrote %s\n", path)
					return nil
				},
			},
			{
				Name:  "check",
				Usage: "Validate the configuration and compile its patterns",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if _, _, err := loadConfig(cmd); err != nil {
						return err
					}
					path, _ := configPath(cmd)
					fmt.Fprintf(stdout(cmd), "%s: ok\n", path)
					return nil
				},
			},
		},
	}
}
