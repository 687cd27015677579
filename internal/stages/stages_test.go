package stages

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relgate/relgate/internal/artifact"
	"github.com/relgate/relgate/internal/config"
	relerrors "github.com/relgate/relgate/internal/errors"
	"github.com/relgate/relgate/internal/index"
	"github.com/relgate/relgate/internal/publish"
)

// fakeRunner records invocations and optionally simulates tool behavior.
type fakeRunner struct {
	invocations []publish.Invocation
	onRun       func(inv publish.Invocation) error
}

func (f *fakeRunner) Run(_ context.Context, inv publish.Invocation) error {
	f.invocations = append(f.invocations, inv)
	if f.onRun != nil {
		return f.onRun(inv)
	}
	return nil
}

func TestBuildStoresDistDir(t *testing.T) {
	sourceDir := t.TempDir()
	store := artifact.NewFSStore(t.TempDir())

	// Simulate the build backend dropping distributions into dist/.
	runner := &fakeRunner{onRun: func(inv publish.Invocation) error {
		distDir := filepath.Join(sourceDir, "dist")
		if err := os.MkdirAll(distDir, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(distDir, "sample-1.0.0.tar.gz"), []byte("sdist"), 0o644)
	}}

	build := NewBuild(config.BuildConfig{
		Command:   "python -m build",
		SourceDir: sourceDir,
		DistDir:   "dist",
	}, store, artifact.DefaultHandle, runner)

	assert.Equal(t, "build", build.Name())
	require.NoError(t, build.Run(context.Background()))

	require.Len(t, runner.invocations, 1)
	assert.Equal(t, "python", runner.invocations[0].Path)
	assert.Equal(t, []string{"-m", "build"}, runner.invocations[0].Args)
	assert.Equal(t, sourceDir, runner.invocations[0].Dir)

	dest := t.TempDir()
	require.NoError(t, store.Fetch(context.Background(), artifact.DefaultHandle, dest))
	entries, err := os.ReadDir(dest)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestBuildFailureIsFatal(t *testing.T) {
	toolErr := errors.New("exit status 1")
	runner := &fakeRunner{onRun: func(publish.Invocation) error { return toolErr }}

	build := NewBuild(config.BuildConfig{
		Command:   "python -m build",
		SourceDir: t.TempDir(),
		DistDir:   "dist",
	}, artifact.NewFSStore(t.TempDir()), artifact.DefaultHandle, runner)

	err := build.Run(context.Background())
	assert.ErrorIs(t, err, toolErr)
}

func seedBundle(t *testing.T, store artifact.Store) {
	t.Helper()
	distDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(distDir, "sample-1.0.0.tar.gz"), []byte("sdist"), 0o644))
	require.NoError(t, store.Save(context.Background(), artifact.DefaultHandle, distDir))
}

func TestPublishStagingInvocation(t *testing.T) {
	store := artifact.NewFSStore(t.TempDir())
	seedBundle(t, store)

	runner := &fakeRunner{}
	stage := NewPublish(PublishParams{
		Target:  index.Defaults()[index.Staging],
		Store:   store,
		Handle:  artifact.DefaultHandle,
		Runner:  runner,
		Package: "sampleproject",
	})

	assert.Equal(t, "publish-staging", stage.Name())
	require.NoError(t, stage.Run(context.Background()))

	require.Len(t, runner.invocations, 1)
	inv := runner.invocations[0]
	assert.Equal(t, "twine", inv.Path)
	assert.Contains(t, inv.Args, "--skip-existing")
	assert.Contains(t, inv.Args, "https://test.pypi.org/legacy/")
}

func TestPublishProductionInvocation(t *testing.T) {
	store := artifact.NewFSStore(t.TempDir())
	seedBundle(t, store)

	runner := &fakeRunner{}
	stage := NewPublish(PublishParams{
		Target:  index.Defaults()[index.Production],
		Store:   store,
		Handle:  artifact.DefaultHandle,
		Runner:  runner,
		Package: "sampleproject",
	})

	assert.Equal(t, "publish-production", stage.Name())
	require.NoError(t, stage.Run(context.Background()))

	require.Len(t, runner.invocations, 1)
	inv := runner.invocations[0]
	assert.NotContains(t, inv.Args, "--skip-existing")
	assert.NotContains(t, inv.Args, "--repository-url")
}

func TestPublishVerifyRunsCheckFirst(t *testing.T) {
	store := artifact.NewFSStore(t.TempDir())
	seedBundle(t, store)

	runner := &fakeRunner{}
	stage := NewPublish(PublishParams{
		Target:  index.Defaults()[index.Staging],
		Store:   store,
		Handle:  artifact.DefaultHandle,
		Runner:  runner,
		Package: "sampleproject",
		Verify:  true,
	})

	require.NoError(t, stage.Run(context.Background()))

	require.Len(t, runner.invocations, 2)
	assert.Equal(t, "check", runner.invocations[0].Args[0])
	assert.Equal(t, "upload", runner.invocations[1].Args[0])
}

func TestPublishMissingBundle(t *testing.T) {
	runner := &fakeRunner{}
	stage := NewPublish(PublishParams{
		Target:  index.Defaults()[index.Staging],
		Store:   artifact.NewFSStore(t.TempDir()),
		Handle:  artifact.DefaultHandle,
		Runner:  runner,
		Package: "sampleproject",
	})

	err := stage.Run(context.Background())
	assert.ErrorIs(t, err, relerrors.ErrBundleNotFound)
	assert.Empty(t, runner.invocations, "no upload is attempted without a bundle")
}

func TestPublishUploadFailure(t *testing.T) {
	store := artifact.NewFSStore(t.TempDir())
	seedBundle(t, store)

	uploadErr := errors.New("exit status 1")
	runner := &fakeRunner{onRun: func(publish.Invocation) error { return uploadErr }}
	stage := NewPublish(PublishParams{
		Target:  index.Defaults()[index.Production],
		Store:   store,
		Handle:  artifact.DefaultHandle,
		Runner:  runner,
		Package: "sampleproject",
	})

	err := stage.Run(context.Background())
	assert.ErrorIs(t, err, uploadErr)
}
