package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	v1 "github.com/vecsnap/vecsnap/apis/v1"
	"github.com/vecsnap/vecsnap/internal/runner"
)

// jobArgument is the positional job file argument shared by all commands.
func jobArgument() []cli.Argument {
	return []cli.Argument{
		&cli.StringArg{
			Name:      "job",
			UsageText: "The dataset job file",
		},
	}
}

// credentialFlags expose artifact-store credentials. The environment is read
// here, at the boundary, and passed down as explicit configuration.
func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "access-key-id",
			Usage:   "Artifact store access key id",
			Sources: cli.EnvVars("VECSNAP_ACCESS_KEY_ID"),
		},
		&cli.StringFlag{
			Name:    "secret-access-key",
			Usage:   "Artifact store secret access key",
			Sources: cli.EnvVars("VECSNAP_SECRET_ACCESS_KEY"),
		},
	}
}

func loadJob(command *cli.Command) (v1.DatasetJob, error) {
	jobFilename := command.StringArg("job")
	if jobFilename == "" {
		return v1.DatasetJob{}, fmt.Errorf("no job file provided")
	}

	jobFile, err := os.ReadFile(jobFilename)
	if err != nil {
		return v1.DatasetJob{}, fmt.Errorf("failed to read job file: %w", err)
	}

	return runner.ParseDatasetJob(jobFile)
}

func newRunner(ctx context.Context, command *cli.Command) (*runner.Runner, error) {
	job, err := loadJob(command)
	if err != nil {
		return nil, err
	}

	creds := runner.Credentials{
		AccessKeyID:     command.String("access-key-id"),
		SecretAccessKey: command.String("secret-access-key"),
	}

	r, err := runner.New(ctx, getLogger(ctx).Named("runner"), job, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	return r, nil
}
