package di

import "github.com/relgate/relgate/internal/config"

// ConfigPath is the location of the project release configuration file.
type ConfigPath string

// DefaultConfigPath is used when no --config flag is given.
const DefaultConfigPath = ConfigPath(config.DefaultPath)

// Option is a function that configures the dependency injection container.
type Option func(*options)

// WithConfigPath overrides the release configuration file location.
func WithConfigPath(path string) Option {
	return func(opts *options) {
		opts.configPath = ConfigPath(path)
	}
}

// WithProviders adds constructor functions to the dependency injection container.
// Each provider should be a constructor function that returns one or more values.
// Providers can declare dependencies as function parameters, which will be
// automatically resolved by the container.
//
// Example:
//
//	WithProviders(
//	    func() artifact.Store { return artifact.NewFSStore("/tmp/bundles") },
//	    func(store artifact.Store) *stages.Build { ... },
//	)
func WithProviders(providers ...any) Option {
	return func(opts *options) {
		opts.providers = append(opts.providers, providers...)
	}
}

type options struct {
	configPath ConfigPath
	providers  []any
}
