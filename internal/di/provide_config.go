package di

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/relgate/relgate/internal/artifact"
	"github.com/relgate/relgate/internal/config"
	"github.com/relgate/relgate/internal/index"
	"github.com/relgate/relgate/internal/stages"
)

func ProvideAppConfig(path ConfigPath) (*config.Config, error) {
	return config.Load(string(path))
}

func ProvideIndexRegistry(cfg *config.Config) *index.Registry {
	return index.NewRegistry(cfg.Targets())
}

func ProvideCommandRunner() stages.CommandRunner {
	return stages.ExecRunner{}
}

// ProvideArtifactStore selects the bundle store from config. The fs backend
// with no configured dir gets a per-run temporary root, matching the
// bundle's transient lifetime.
func ProvideArtifactStore(cfg *config.Config, s3Client *s3.Client, logger zerolog.Logger) (artifact.Store, error) {
	switch cfg.Artifacts.Backend {
	case config.BackendS3:
		return artifact.NewS3Store(s3Client, cfg.Artifacts.S3.Bucket, cfg.Artifacts.S3.Prefix, logger), nil
	case config.BackendFS:
		root := cfg.Artifacts.Dir
		if root == "" {
			dir, err := os.MkdirTemp("", "relgate-bundles-")
			if err != nil {
				return nil, fmt.Errorf("failed to create bundle root: %w", err)
			}
			root = dir
		}
		return artifact.NewFSStore(root), nil
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.Artifacts.Backend)
	}
}
