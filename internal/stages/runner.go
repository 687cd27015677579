package stages

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/relgate/relgate/internal/publish"
)

// CommandRunner executes external tool invocations. Stages treat the tools
// as opaque collaborators; a non-zero exit is the only failure signal.
type CommandRunner interface {
	Run(ctx context.Context, inv publish.Invocation) error
}

// ExecRunner runs invocations as subprocesses. Tool output goes straight to
// the process streams; those logs are the run's observability surface.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, inv publish.Invocation) error {
	logger := zerolog.Ctx(ctx)
	logger.Info().Str("command", inv.String()).Msg("running tool")

	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", filepath.Base(inv.Path), err)
	}
	return nil
}
