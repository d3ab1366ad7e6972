package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Validate a dataset job file",
	Arguments: jobArgument(),
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		job, err := loadJob(command)
		if err != nil {
			var validationErrs validator.ValidationErrors
			if errors.As(err, &validationErrs) {
				var fields []string
				for _, fieldErr := range validationErrs {
					fields = append(fields, fieldErr.Namespace())
				}
				return fmt.Errorf("invalid job file, check fields: %s", strings.Join(fields, ", "))
			}
			return err
		}

		logger.Info("job file is valid", zap.String("job_name", job.Metadata.Name))
		return nil
	},
}
