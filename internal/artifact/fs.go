package artifact

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/relgate/relgate/internal/errors"
)

// FSStore is the default Store: bundles live under a local root directory,
// one subdirectory per handle. The root is transient; it lives only as long
// as the pipeline run that created it.
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem-backed store rooted at root.
func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

func (s *FSStore) Save(ctx context.Context, handle, dir string) error {
	target := filepath.Join(s.root, handle)

	// Replace any previous bundle under this handle.
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("failed to clear bundle %s: %w", handle, err)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf("failed to create bundle %s: %w", handle, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read distribution dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(dir, entry.Name())
		dst := filepath.Join(target, entry.Name())
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to store %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func (s *FSStore) Fetch(ctx context.Context, handle, destDir string) error {
	source := filepath.Join(s.root, handle)

	entries, err := os.ReadDir(source)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", errors.ErrBundleNotFound, handle)
		}
		return fmt.Errorf("failed to read bundle %s: %w", handle, err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("failed to create dest dir %s: %w", destDir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}
		src := filepath.Join(source, entry.Name())
		dst := filepath.Join(destDir, entry.Name())
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to fetch %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
