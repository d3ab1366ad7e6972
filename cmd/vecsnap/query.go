package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/vecsnap/vecsnap/internal/store"
)

var queryCommand = &cli.Command{
	Name:  "query",
	Usage: "Search the vector table with a text query",
	Flags: append(credentialFlags(),
		&cli.StringFlag{
			Name:  "metric",
			Value: string(store.MetricCosine),
			Usage: "Distance metric (cosine, l2, dot)",
		},
		&cli.IntFlag{
			Name:  "limit",
			Value: 5,
			Usage: "Maximum number of results",
		},
		&cli.StringSliceFlag{
			Name:  "field",
			Usage: "Fields to return (query, text, embedding; can be repeated)",
		},
	),
	Arguments: append(jobArgument(),
		&cli.StringArg{
			Name:      "text",
			UsageText: "The query text",
		},
	),
	Action: func(ctx context.Context, command *cli.Command) error {
		text := command.StringArg("text")
		if text == "" {
			return fmt.Errorf("no query text provided")
		}

		metric, err := store.ParseMetric(command.String("metric"))
		if err != nil {
			return err
		}

		r, err := newRunner(ctx, command)
		if err != nil {
			return err
		}
		defer r.Close()

		matches, err := r.Search(ctx, text, metric, int(command.Int("limit")), command.StringSlice("field"))
		if err != nil {
			return fmt.Errorf("failed to search: %w", err)
		}

		return printMatches(matches)
	},
}
