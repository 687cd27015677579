// Package config loads the project release configuration from .relgate.yml,
// with environment variable overrides for CI use.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/relgate/relgate/internal/artifact"
	"github.com/relgate/relgate/internal/errors"
	"github.com/relgate/relgate/internal/index"
	"github.com/relgate/relgate/internal/utils"
)

// DefaultPath is where Load looks when no config file is specified.
const DefaultPath = ".relgate.yml"

// Backend selects the artifact store implementation.
type Backend string

const (
	BackendFS Backend = "fs"
	BackendS3 Backend = "s3"
)

// BuildConfig describes the external build tool invocation.
type BuildConfig struct {
	// Command is the build tool command line, e.g. "python -m build".
	// It is split on whitespace; no shell is involved.
	Command string `yaml:"command"`

	// SourceDir is the directory the build command runs in.
	SourceDir string `yaml:"source_dir"`

	// DistDir is where the build command leaves distributions, relative to
	// SourceDir.
	DistDir string `yaml:"dist_dir"`
}

// Argv returns the build command split into an argument vector.
func (b BuildConfig) Argv() []string {
	return strings.Fields(b.Command)
}

// PublishConfig describes the external uploader.
type PublishConfig struct {
	// Uploader is the upload tool; "twine" when empty.
	Uploader string `yaml:"uploader"`

	// Verify runs the uploader's distribution check before uploading.
	Verify bool `yaml:"verify"`
}

// ArtifactConfig selects and parameterizes the bundle store.
type ArtifactConfig struct {
	Backend Backend `yaml:"backend"`

	// Dir is the fs backend's root. Empty means a per-run temporary dir.
	Dir string `yaml:"dir"`

	S3 S3Config `yaml:"s3"`

	// Handle names the bundle in the store.
	Handle string `yaml:"handle"`
}

// S3Config parameterizes the s3 artifact backend.
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// IndexOverride allows pointing a target at a private mirror. Gate semantics
// and duplicate-version tolerance are not overridable.
type IndexOverride struct {
	RepositoryURL  string `yaml:"repository_url"`
	ProjectURLBase string `yaml:"project_url_base"`
}

// HistoryConfig enables optional run-history recording.
type HistoryConfig struct {
	// Enabled turns on run-history recording against the environment's
	// default table.
	Enabled bool `yaml:"enabled"`

	// Table is the DynamoDB table holding run records. Setting it implies
	// Enabled. Empty falls back to the environment's default table.
	Table string `yaml:"table"`
}

// Recording reports whether run history should be recorded.
func (h HistoryConfig) Recording() bool {
	return h.Enabled || h.Table != ""
}

// Config is the full project release configuration.
type Config struct {
	// Package is the distribution name being released.
	Package string `yaml:"package"`

	Build     BuildConfig              `yaml:"build"`
	Publish   PublishConfig            `yaml:"publish"`
	Artifacts ArtifactConfig           `yaml:"artifacts"`
	Indexes   map[string]IndexOverride `yaml:"indexes"`
	History   HistoryConfig            `yaml:"history"`
}

// Load reads the configuration file at path, applies defaults and
// environment overrides, and validates the result. A missing file is not an
// error when path is DefaultPath; the zero config plus overrides is used.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err) && path == DefaultPath:
		// Config file is optional; everything can come from the environment.
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("RELGATE_PACKAGE"); v != "" {
		c.Package = v
	}
	if v := os.Getenv("RELGATE_BUILD_COMMAND"); v != "" {
		c.Build.Command = v
	}
	if v := os.Getenv("RELGATE_ARTIFACT_BACKEND"); v != "" {
		c.Artifacts.Backend = Backend(v)
	}
	if v := os.Getenv("RELGATE_S3_BUCKET"); v != "" {
		c.Artifacts.S3.Bucket = v
	}
	if v := os.Getenv("RELGATE_S3_PREFIX"); v != "" {
		c.Artifacts.S3.Prefix = v
	}
	if v := os.Getenv("RELGATE_HISTORY_TABLE"); v != "" {
		c.History.Table = v
	}
	if v := os.Getenv("RELGATE_HISTORY"); v == "true" {
		c.History.Enabled = true
	}
}

func (c *Config) applyDefaults() {
	if c.Build.Command == "" {
		c.Build.Command = "python -m build"
	}
	if c.Build.SourceDir == "" {
		c.Build.SourceDir = "."
	}
	if c.Build.DistDir == "" {
		c.Build.DistDir = "dist"
	}
	if c.Publish.Uploader == "" {
		c.Publish.Uploader = "twine"
	}
	if c.Artifacts.Backend == "" {
		c.Artifacts.Backend = BackendFS
	}
	if c.Artifacts.Handle == "" {
		c.Artifacts.Handle = artifact.DefaultHandle
	}
}

func (c *Config) validate() error {
	if err := utils.ValidatePackageName(c.Package); err != nil {
		return err
	}

	switch c.Artifacts.Backend {
	case BackendFS:
	case BackendS3:
		if c.Artifacts.S3.Bucket == "" {
			return fmt.Errorf("s3 artifact backend requires artifacts.s3.bucket")
		}
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownBackend, c.Artifacts.Backend)
	}

	for name := range c.Indexes {
		if name != string(index.Staging) && name != string(index.Production) {
			return fmt.Errorf("%w: %q", errors.ErrUnknownIndex, name)
		}
	}
	return nil
}

// Targets resolves the index registry with any configured overrides applied.
func (c *Config) Targets() map[index.ID]index.Target {
	targets := index.Defaults()
	for name, override := range c.Indexes {
		id := index.ID(name)
		target := targets[id]
		if override.RepositoryURL != "" {
			target.RepositoryURL = override.RepositoryURL
		}
		if override.ProjectURLBase != "" {
			target.ProjectURLBase = override.ProjectURLBase
		}
		targets[id] = target
	}
	return targets
}
