// Package index defines the fixed publish destinations: the staging (test)
// index and the production index. Both are statically configured; nothing
// constructs a target at runtime.
package index

import (
	"fmt"

	"github.com/relgate/relgate/internal/errors"
	"github.com/relgate/relgate/internal/utils"
)

// ID names one of the two target indexes.
type ID string

const (
	Staging    ID = "staging"
	Production ID = "production"
)

// Target describes a package index an eligible publish stage uploads to.
type Target struct {
	// ID is the logical destination (staging or production).
	ID ID

	// Name is the identity the run assumes when publishing, e.g. the
	// environment name bound to the index's trusted publisher.
	Name string

	// ProjectURLBase is the browsable project URL prefix; the normalized
	// package name is appended to it.
	ProjectURLBase string

	// RepositoryURL is the upload endpoint. Empty means the uploader's
	// default (the production index).
	RepositoryURL string

	// SkipExisting marks already-published versions as tolerated: the
	// staging index skips duplicates, production fails on them.
	SkipExisting bool
}

// ProjectURL renders the browsable URL for a package on this index.
func (t Target) ProjectURL(packageName string) string {
	return t.ProjectURLBase + utils.NormalizePackageName(packageName) + "/"
}

// Defaults returns the built-in registry of targets.
func Defaults() map[ID]Target {
	return map[ID]Target{
		Staging: {
			ID:             Staging,
			Name:           "test-pypi",
			ProjectURLBase: "https://test.pypi.org/p/",
			RepositoryURL:  "https://test.pypi.org/legacy/",
			SkipExisting:   true,
		},
		Production: {
			ID:             Production,
			Name:           "pypi",
			ProjectURLBase: "https://pypi.org/p/",
			RepositoryURL:  "", // uploader default
			SkipExisting:   false,
		},
	}
}

// Registry resolves target IDs to targets.
type Registry struct {
	targets map[ID]Target
}

// NewRegistry creates a registry from the given targets. Defaults() supplies
// the standard pair; config may override endpoints for private mirrors.
func NewRegistry(targets map[ID]Target) *Registry {
	return &Registry{targets: targets}
}

// Get resolves a target by ID.
func (r *Registry) Get(id ID) (Target, error) {
	target, ok := r.targets[id]
	if !ok {
		return Target{}, fmt.Errorf("%w: %q", errors.ErrUnknownIndex, id)
	}
	return target, nil
}
