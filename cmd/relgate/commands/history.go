package commands

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/relgate/relgate/internal/config"
	"github.com/relgate/relgate/internal/dao/rundao"
	"github.com/relgate/relgate/internal/di"
)

// HistoryCommand returns the history command for listing recent pipeline runs.
func HistoryCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent release pipeline runs",
		Description: `Lists run records for a package against a target index, most recent
first. Requires run history to be enabled (history.enabled or an explicit
history.table / RELGATE_HISTORY_TABLE); with no explicit table the
environment's default {env}-relgate-runs table is used.

Examples:
  relgate history --index staging
  relgate history --package sampleproject --index production --limit 5`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "package",
				Aliases: []string{"p"},
				Usage:   "Package name; default is the configured package",
			},
			&cli.StringFlag{
				Name:    "index",
				Aliases: []string{"i"},
				Usage:   "Target index (staging, production, or - for build-only runs)",
				Value:   "staging",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show",
				Value:   20,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the release configuration file",
				Value:   config.DefaultPath,
			},
			&cli.StringFlag{
				Name:    "env",
				Aliases: []string{"e"},
				Usage:   "relgate environment (dev, stg, or prd)",
				Value:   "dev",
				EnvVars: []string{"ENV"},
			},
		},
		Action: func(c *cli.Context) error {
			return historyAction(c, logger)
		},
	}
}

func historyAction(c *cli.Context, logger *zerolog.Logger) error {
	ctx := logger.WithContext(c.Context)

	container, err := di.New(c.String("env"), di.WithConfigPath(c.String("config")))
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	var cfg *config.Config
	var dao *rundao.DAO
	if err := container.Invoke(func(loaded *config.Config, d *rundao.DAO) {
		cfg, dao = loaded, d
	}); err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}

	pkg := c.String("package")
	if pkg == "" {
		pkg = cfg.Package
	}

	records, err := dao.QueryByPackage(ctx, pkg, c.String("index"))
	if err != nil {
		return err
	}

	if limit := c.Int("limit"); limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	if len(records) == 0 {
		fmt.Printf("No runs recorded for %s/%s\n", pkg, c.String("index"))
		return nil
	}

	fmt.Printf("%-45s %-12s %-18s %-20s\n", "RUN", "STATUS", "TRIGGER", "STARTED")
	for _, record := range records {
		started := time.Unix(record.CreatedAt, 0).UTC().Format(time.RFC3339)
		fmt.Printf("%-45s %-12s %-18s %-20s\n",
			record.GetID(), record.Status, record.TriggerKind, started)
	}

	return nil
}
