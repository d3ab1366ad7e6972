package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

var buildCommand = &cli.Command{
	Name:      "build",
	Usage:     "Embed the source pairs and fill the vector table",
	Arguments: jobArgument(),
	Action: func(ctx context.Context, command *cli.Command) error {
		r, err := newRunner(ctx, command)
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.Build(ctx); err != nil {
			return fmt.Errorf("failed to build dataset: %w", err)
		}
		return nil
	},
}
