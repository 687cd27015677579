package main

import (
	"context"
	"os"

	"github.com/relgate/relgate/cmd/relgate/commands"
	"github.com/relgate/relgate/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "relgate",
		Usage: "Release pipeline runner for publishing package distributions",
		Description: `Runs the release pipeline for a Python package: build the distributions,
then publish them to the staging (TestPyPI) or production (PyPI) index
depending on the trigger event.

The gate rules:
  - A published release always publishes to production, never staging.
  - A manual dispatch publishes to staging unless test_pypi is "false",
    in which case it publishes to production.
  - The build stage always runs, for every trigger.`,
		Commands: []*cli.Command{
			commands.RunCommand(&logger),
			commands.PlanCommand(&logger),
			commands.HistoryCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
