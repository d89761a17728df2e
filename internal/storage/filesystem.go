package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemAdapter implements Interface on a local directory. Retrieval
// URLs point at the server's own /direct-download route.
type FilesystemAdapter struct {
	root string
}

// NewFilesystemAdapter creates a filesystem adapter rooted at dir.
func NewFilesystemAdapter(dir string) (*FilesystemAdapter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FilesystemAdapter{root: dir}, nil
}

// Root returns the adapter's base directory.
func (a *FilesystemAdapter) Root() string {
	return a.root
}

// resolve joins key onto the root, refusing path escapes.
func (a *FilesystemAdapter) resolve(key string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(a.root, filepath.Base(key)))
	if !strings.HasPrefix(cleaned, filepath.Clean(a.root)) {
		return "", fmt.Errorf("invalid key: %s", key)
	}
	return cleaned, nil
}

func (a *FilesystemAdapter) Put(_ context.Context, key string, reader io.Reader) error {
	path, err := a.resolve(key)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (a *FilesystemAdapter) GetStream(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := a.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (a *FilesystemAdapter) GetURL(_ context.Context, key string) (string, error) {
	return "/direct-download/" + url.PathEscape(filepath.Base(key)), nil
}

func (a *FilesystemAdapter) Exists(_ context.Context, key string) (bool, error) {
	path, err := a.resolve(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (a *FilesystemAdapter) Delete(_ context.Context, key string) error {
	path, err := a.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// Clean removes every file under the root. Called at startup so stale
// temporary artifacts from a previous run do not accumulate.
func (a *FilesystemAdapter) Clean() error {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(a.root, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
