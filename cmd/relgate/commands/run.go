package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/relgate/relgate/internal/artifact"
	"github.com/relgate/relgate/internal/config"
	"github.com/relgate/relgate/internal/dao/rundao"
	"github.com/relgate/relgate/internal/di"
	"github.com/relgate/relgate/internal/gate"
	"github.com/relgate/relgate/internal/history"
	"github.com/relgate/relgate/internal/index"
	"github.com/relgate/relgate/internal/pipeline"
	"github.com/relgate/relgate/internal/stages"
	"github.com/relgate/relgate/internal/trigger"
)

// RunCommand returns the run command: evaluate the gate for a trigger event
// and execute the release pipeline.
func RunCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Execute the release pipeline for a trigger event",
		Description: `Evaluates the release gate for the trigger event and runs the eligible
stages: build always, then at most one of the publish stages.

When --trigger is omitted, the event is reconstructed from the CI
environment (GITHUB_EVENT_NAME, INPUT_TEST_PYPI).

Examples:
  # As invoked from a release workflow job
  relgate run

  # Rehearse a release against the staging index
  relgate run --trigger manual --test-pypi true

  # Manually push to production
  relgate run --trigger manual --test-pypi false`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "trigger",
				Aliases: []string{"t"},
				Usage:   "Trigger kind (release or manual); default is the CI environment's event",
			},
			&cli.StringFlag{
				Name:  "test-pypi",
				Usage: `test_pypi input of a manual dispatch ("true" or "false"; unset means "true")`,
				// Inputs arrive serialized as strings, so this flag stays a string.
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
				Usage:   "relgate environment (dev, stg, or prd) - used for run history",
				Value:   "dev",
				EnvVars: []string{"ENV"},
			},
		},
		Action: func(c *cli.Context) error {
			return runAction(c, logger)
		},
	}
}

func runAction(c *cli.Context, logger *zerolog.Logger) error {
	ctx := logger.WithContext(c.Context)

	event, err := resolveEvent(c)
	if err != nil {
		return err
	}

	selection := gate.Decide(event)
	logger.Info().
		Str("trigger", string(event.Kind)).
		Str("test_pypi", event.TestPyPI()).
		Bool("staging", selection.StagingPublish).
		Bool("production", selection.ProductionPublish).
		Msg("release gate decided")

	container, err := di.New(c.String("env"), di.WithConfigPath(c.String("config")))
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	var cfg *config.Config
	var registry *index.Registry
	var store artifact.Store
	var runner stages.CommandRunner
	if err := container.Invoke(func(loaded *config.Config, r *index.Registry, s artifact.Store, cr stages.CommandRunner) {
		cfg, registry, store, runner = loaded, r, s, cr
	}); err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}

	recorder, err := beginHistory(ctx, container, cfg, event, selection)
	if err != nil {
		// History must never block a release.
		logger.Warn().Err(err).Msg("run history unavailable; continuing without it")
	}

	var stageRecorder pipeline.Recorder
	if recorder != nil {
		stageRecorder = recorder
	}

	p := pipeline.New(stageRecorder)
	p.Add(stages.NewBuild(cfg.Build, store, cfg.Artifacts.Handle, runner))

	for _, id := range []index.ID{index.Staging, index.Production} {
		target, err := registry.Get(id)
		if err != nil {
			return err
		}

		stageID := gate.StageStagingPublish
		if id == index.Production {
			stageID = gate.StageProductionPublish
		}

		p.Add(stages.NewPublish(stages.PublishParams{
			Target:   target,
			Store:    store,
			Handle:   cfg.Artifacts.Handle,
			Runner:   runner,
			Package:  cfg.Package,
			Uploader: cfg.Publish.Uploader,
			Verify:   cfg.Publish.Verify,
		}),
			pipeline.WithNeeds(string(gate.StageBuild)),
			pipeline.WithCondition(conditionFor(selection, stageID)),
		)
	}

	report, runErr := p.Execute(ctx)
	if recorder != nil {
		var errMsg *string
		if runErr != nil {
			msg := runErr.Error()
			errMsg = &msg
		}
		recorder.Finish(ctx, report, errMsg)
	}

	for _, stage := range report.Stages {
		logger.Info().
			Str("stage", stage.Name).
			Str("status", string(stage.Status)).
			Msg("stage result")
	}

	return runErr
}

func resolveEvent(c *cli.Context) (trigger.Event, error) {
	if name := c.String("trigger"); name != "" {
		kind, err := trigger.ParseKind(name)
		if err != nil {
			return trigger.Event{}, err
		}
		return trigger.Event{Kind: kind, RawTestPyPI: c.String("test-pypi")}, nil
	}
	return trigger.FromEnv()
}

func conditionFor(selection gate.Selection, id gate.StageID) func() bool {
	return func() bool {
		return selection.Selected(id)
	}
}

// eligibleIndex names the publish target of a run for the history record;
// "-" marks a build-only run.
func eligibleIndex(selection gate.Selection) string {
	switch {
	case selection.StagingPublish:
		return string(index.Staging)
	case selection.ProductionPublish:
		return string(index.Production)
	default:
		return "-"
	}
}

func beginHistory(ctx context.Context, container di.Container, cfg *config.Config, event trigger.Event, selection gate.Selection) (*history.Recorder, error) {
	if !cfg.History.Recording() {
		return nil, nil
	}

	var dao *rundao.DAO
	if err := container.Invoke(func(d *rundao.DAO) { dao = d }); err != nil {
		return nil, err
	}

	return history.Begin(ctx, dao, history.RunInfo{
		Package:     cfg.Package,
		Index:       eligibleIndex(selection),
		TriggerKind: string(event.Kind),
		TestPyPI:    event.RawTestPyPI,
	})
}
