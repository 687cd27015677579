package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/relgate/relgate/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func TestFSStoreSaveAndFetch(t *testing.T) {
	ctx := context.Background()
	store := NewFSStore(t.TempDir())

	distDir := t.TempDir()
	writeFile(t, distDir, "sample-1.0.0-py3-none-any.whl", "wheel")
	writeFile(t, distDir, "sample-1.0.0.tar.gz", "sdist")

	// Subdirectories are not part of the bundle.
	require.NoError(t, os.Mkdir(filepath.Join(distDir, "nested"), 0o755))

	require.NoError(t, store.Save(ctx, DefaultHandle, distDir))

	destDir := t.TempDir()
	require.NoError(t, store.Fetch(ctx, DefaultHandle, destDir))

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	content, err := os.ReadFile(filepath.Join(destDir, "sample-1.0.0.tar.gz"))
	require.NoError(t, err)
	assert.Equal(t, "sdist", string(content))
}

func TestFSStoreSaveReplacesPreviousBundle(t *testing.T) {
	ctx := context.Background()
	store := NewFSStore(t.TempDir())

	first := t.TempDir()
	writeFile(t, first, "sample-0.9.0.tar.gz", "old")
	require.NoError(t, store.Save(ctx, DefaultHandle, first))

	second := t.TempDir()
	writeFile(t, second, "sample-1.0.0.tar.gz", "new")
	require.NoError(t, store.Save(ctx, DefaultHandle, second))

	destDir := t.TempDir()
	require.NoError(t, store.Fetch(ctx, DefaultHandle, destDir))

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sample-1.0.0.tar.gz", entries[0].Name())
}

func TestFSStoreFetchMissingHandle(t *testing.T) {
	store := NewFSStore(t.TempDir())

	err := store.Fetch(context.Background(), "no-such-handle", t.TempDir())
	assert.ErrorIs(t, err, errors.ErrBundleNotFound)
}

func TestFSStoreFetchIsIndependentPerStage(t *testing.T) {
	ctx := context.Background()
	store := NewFSStore(t.TempDir())

	distDir := t.TempDir()
	writeFile(t, distDir, "sample-1.0.0.tar.gz", "sdist")
	require.NoError(t, store.Save(ctx, DefaultHandle, distDir))

	// Each publish stage fetches into its own fresh directory; mutating one
	// copy must not affect another fetch.
	firstDest := t.TempDir()
	require.NoError(t, store.Fetch(ctx, DefaultHandle, firstDest))
	require.NoError(t, os.Remove(filepath.Join(firstDest, "sample-1.0.0.tar.gz")))

	secondDest := t.TempDir()
	require.NoError(t, store.Fetch(ctx, DefaultHandle, secondDest))

	entries, err := os.ReadDir(secondDest)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
