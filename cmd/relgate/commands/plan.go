package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/relgate/relgate/internal/config"
	"github.com/relgate/relgate/internal/gate"
	"github.com/relgate/relgate/internal/index"
	"github.com/relgate/relgate/internal/trigger"
)

// PlanCommand returns the plan command: evaluate the release gate without
// running anything.
func PlanCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Show which stages a trigger event would run",
		Description: `Evaluates the release gate for a trigger event and prints the selected
stages and their targets, without building or publishing anything.

Examples:
  relgate plan --trigger release
  relgate plan --trigger manual
  relgate plan --trigger manual --test-pypi false`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "trigger",
				Aliases: []string{"t"},
				Usage:   "Trigger kind (release or manual); default is the CI environment's event",
			},
			&cli.StringFlag{
				Name:  "test-pypi",
				Usage: `test_pypi input of a manual dispatch ("true" or "false"; unset means "true")`,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the release configuration file",
				Value:   config.DefaultPath,
			},
		},
		Action: func(c *cli.Context) error {
			return planAction(c, logger)
		},
	}
}

func planAction(c *cli.Context, logger *zerolog.Logger) error {
	event, err := resolveEvent(c)
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	registry := index.NewRegistry(cfg.Targets())

	selection := gate.Decide(event)

	fmt.Printf("Trigger:   %s\n", event.Kind)
	if event.Kind == trigger.KindManualDispatch {
		fmt.Printf("test_pypi: %s\n", event.TestPyPI())
	}
	fmt.Println()
	fmt.Printf("  %-20s run\n", "build")

	printPublishPlan(registry, index.Staging, "publish-staging", cfg.Package, selection.StagingPublish)
	printPublishPlan(registry, index.Production, "publish-production", cfg.Package, selection.ProductionPublish)

	return nil
}

func printPublishPlan(registry *index.Registry, id index.ID, stage, pkg string, selected bool) {
	target, err := registry.Get(id)
	if err != nil {
		return
	}

	verdict := "skip"
	if selected {
		verdict = "run"
	}

	fmt.Printf("  %-20s %-5s", stage, verdict)
	if selected {
		fmt.Printf(" -> %s", target.ProjectURL(pkg))
	}
	fmt.Println()
}
