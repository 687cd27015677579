// Package stages implements the pipeline stages: building the distribution
// bundle and publishing it to a target index. Each stage is a one-shot unit;
// publish stages share nothing with the build beyond the artifact store.
package stages

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/relgate/relgate/internal/artifact"
	"github.com/relgate/relgate/internal/config"
	"github.com/relgate/relgate/internal/gate"
	"github.com/relgate/relgate/internal/publish"
)

// Build runs the external build tool and stores the resulting distribution
// directory in the artifact store. It runs exactly once per pipeline run,
// for every trigger kind.
type Build struct {
	cfg    config.BuildConfig
	store  artifact.Store
	handle string
	runner CommandRunner
}

// NewBuild creates the build stage.
func NewBuild(cfg config.BuildConfig, store artifact.Store, handle string, runner CommandRunner) *Build {
	return &Build{
		cfg:    cfg,
		store:  store,
		handle: handle,
		runner: runner,
	}
}

func (b *Build) Name() string {
	return string(gate.StageBuild)
}

func (b *Build) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	argv := b.cfg.Argv()
	if len(argv) == 0 {
		return fmt.Errorf("build command is empty")
	}

	inv := publish.Invocation{
		Path: argv[0],
		Args: argv[1:],
		Dir:  b.cfg.SourceDir,
	}
	if err := b.runner.Run(ctx, inv); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	distDir := filepath.Join(b.cfg.SourceDir, b.cfg.DistDir)
	if err := b.store.Save(ctx, b.handle, distDir); err != nil {
		return fmt.Errorf("failed to store artifact bundle: %w", err)
	}

	logger.Info().
		Str("handle", b.handle).
		Str("dist_dir", distDir).
		Msg("artifact bundle stored")

	return nil
}
