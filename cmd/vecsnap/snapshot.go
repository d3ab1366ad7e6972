package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var snapshotCommand = &cli.Command{
	Name:      "snapshot",
	Usage:     "Pack the dataset directory and upload the archive",
	Flags:     credentialFlags(),
	Arguments: jobArgument(),
	Action: func(ctx context.Context, command *cli.Command) error {
		r, err := newRunner(ctx, command)
		if err != nil {
			return err
		}
		defer r.Close()

		key, err := r.Snapshot(ctx)
		if err != nil {
			return fmt.Errorf("failed to snapshot dataset: %w", err)
		}

		getLogger(ctx).Info("snapshot uploaded", zap.String("key", key))
		return nil
	},
}
