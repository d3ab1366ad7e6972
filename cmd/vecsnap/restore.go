package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var restoreCommand = &cli.Command{
	Name:  "restore",
	Usage: "Download the dataset snapshot and unpack it",
	Flags: append(credentialFlags(),
		&cli.StringFlag{
			Name:  "dest",
			Value: ".",
			Usage: "Directory to restore the dataset into",
		},
	),
	Arguments: jobArgument(),
	Action: func(ctx context.Context, command *cli.Command) error {
		r, err := newRunner(ctx, command)
		if err != nil {
			return err
		}
		defer r.Close()

		dir, err := r.Restore(ctx, command.String("dest"))
		if err != nil {
			return fmt.Errorf("failed to restore dataset: %w", err)
		}

		getLogger(ctx).Info("dataset restored", zap.String("dir", dir))
		fmt.Println(dir)
		return nil
	},
}
