// Package publish builds the uploader invocations that push a fetched
// artifact bundle to a target index. The upload mechanics themselves belong
// to the external uploader tool; credentials stay entirely its concern
// (trusted publishing rides on the ambient CI identity).
package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/relgate/relgate/internal/errors"
	"github.com/relgate/relgate/internal/index"
)

// DefaultUploader is the tool invoked to upload distributions.
const DefaultUploader = "twine"

// Invocation is a fully resolved external tool call.
type Invocation struct {
	Path string
	Args []string
	Dir  string
}

// String renders the invocation for logging.
func (inv Invocation) String() string {
	out := inv.Path
	for _, arg := range inv.Args {
		out += " " + arg
	}
	return out
}

// ListDistributions returns the distribution files inside the fetched bundle
// directory, sorted for stable invocations. An empty bundle is an error: an
// upload with nothing to upload means the build handoff went wrong.
func ListDistributions(bundleDir string) ([]string, error) {
	entries, err := os.ReadDir(bundleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle dir %s: %w", bundleDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, filepath.Join(bundleDir, entry.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", errors.ErrBundleEmpty, bundleDir)
	}

	sort.Strings(files)
	return files, nil
}

// UploadCommand builds the uploader invocation for a target index.
//
// Staging targets pass --skip-existing so a re-run of an already-published
// version is not an error; production omits it, so a duplicate version fails
// the run. Targets with an explicit repository URL pass it through; the
// production default is the uploader's built-in endpoint.
func UploadCommand(uploader string, target index.Target, files []string) Invocation {
	if uploader == "" {
		uploader = DefaultUploader
	}

	args := []string{"upload", "--non-interactive"}
	if target.RepositoryURL != "" {
		args = append(args, "--repository-url", target.RepositoryURL)
	}
	if target.SkipExisting {
		args = append(args, "--skip-existing")
	}
	args = append(args, files...)

	return Invocation{Path: uploader, Args: args}
}

// CheckCommand builds the pre-upload distribution check invocation.
func CheckCommand(uploader string, files []string) Invocation {
	if uploader == "" {
		uploader = DefaultUploader
	}
	return Invocation{Path: uploader, Args: append([]string{"check", "--strict"}, files...)}
}
