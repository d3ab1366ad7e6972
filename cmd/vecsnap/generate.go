package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

var generateCommand = &cli.Command{
	Name:      "generate",
	Usage:     "Chunk the docs tree into the source pairs file",
	Arguments: jobArgument(),
	Action: func(ctx context.Context, command *cli.Command) error {
		r, err := newRunner(ctx, command)
		if err != nil {
			return err
		}
		defer r.Close()

		if err := r.Generate(ctx); err != nil {
			return fmt.Errorf("failed to generate source pairs: %w", err)
		}
		return nil
	},
}
