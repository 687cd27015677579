package stages

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/relgate/relgate/internal/artifact"
	"github.com/relgate/relgate/internal/gate"
	"github.com/relgate/relgate/internal/index"
	"github.com/relgate/relgate/internal/publish"
)

// Publish uploads the artifact bundle to one target index. Each publish
// stage re-fetches the bundle into its own ephemeral directory; it never
// sees the build stage's working tree.
type Publish struct {
	id       gate.StageID
	target   index.Target
	store    artifact.Store
	handle   string
	runner   CommandRunner
	pkg      string
	uploader string
	verify   bool
}

// PublishParams collects the publish stage's configuration.
type PublishParams struct {
	Target   index.Target
	Store    artifact.Store
	Handle   string
	Runner   CommandRunner
	Package  string
	Uploader string
	Verify   bool
}

// NewPublish creates the publish stage for a target index.
func NewPublish(params PublishParams) *Publish {
	id := gate.StageStagingPublish
	if params.Target.ID == index.Production {
		id = gate.StageProductionPublish
	}
	return &Publish{
		id:       id,
		target:   params.Target,
		store:    params.Store,
		handle:   params.Handle,
		runner:   params.Runner,
		pkg:      params.Package,
		uploader: params.Uploader,
		verify:   params.Verify,
	}
}

func (p *Publish) Name() string {
	return string(p.id)
}

func (p *Publish) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx).With().Str("index", p.target.Name).Logger()

	workDir, err := os.MkdirTemp("", "relgate-"+string(p.target.ID)+"-")
	if err != nil {
		return fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	if err := p.store.Fetch(ctx, p.handle, workDir); err != nil {
		return fmt.Errorf("failed to fetch artifact bundle: %w", err)
	}

	files, err := publish.ListDistributions(workDir)
	if err != nil {
		return err
	}

	if p.verify {
		if err := p.runner.Run(ctx, publish.CheckCommand(p.uploader, files)); err != nil {
			return fmt.Errorf("distribution check failed: %w", err)
		}
	}

	if err := p.runner.Run(ctx, publish.UploadCommand(p.uploader, p.target, files)); err != nil {
		return fmt.Errorf("upload to %s failed: %w", p.target.Name, err)
	}

	logger.Info().
		Int("distributions", len(files)).
		Str("project_url", p.target.ProjectURL(p.pkg)).
		Msg("published")

	return nil
}
