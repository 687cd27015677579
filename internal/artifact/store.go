// Package artifact moves the built distribution bundle between pipeline
// stages. The bundle is an opaque directory of build outputs, written once by
// the build stage and fetched read-only by each publish stage under a named
// handle.
package artifact

import "context"

// DefaultHandle is the bundle name used when none is configured.
const DefaultHandle = "python-package-distributions"

// Store saves and fetches artifact bundles by handle.
type Store interface {
	// Save uploads every regular file in dir under the given handle,
	// replacing any bundle previously stored there.
	Save(ctx context.Context, handle, dir string) error

	// Fetch downloads the bundle stored under handle into destDir. It
	// returns errors.ErrBundleNotFound if no bundle exists for the handle.
	Fetch(ctx context.Context, handle, destDir string) error
}
