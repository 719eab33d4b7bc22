package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/JaimeStill/deck-translate/pkg/lifecycle"
)

// Filesystem stores blobs as files beneath a directory. All access goes
// through an os.Root, so keys cannot resolve outside it even via symlinks.
type Filesystem struct {
	root   *os.Root
	logger *slog.Logger
}

// NewFilesystem creates basePath if needed and opens it as the storage root.
func NewFilesystem(basePath string, logger *slog.Logger) (*Filesystem, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base_path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create base_path: %w", err)
	}

	root, err := os.OpenRoot(basePath)
	if err != nil {
		return nil, fmt.Errorf("open base_path: %w", err)
	}

	return &Filesystem{
		root:   root,
		logger: logger.With("system", "storage", "driver", DriverFilesystem),
	}, nil
}

// Start releases the root when the lifecycle shuts down.
func (f *Filesystem) Start(lc *lifecycle.Coordinator) error {
	f.logger.Info("storage ready", "base_path", f.root.Name())

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := f.Close(); err != nil {
			f.logger.Warn("close storage root", "error", err)
		}
	})
	return nil
}

func (f *Filesystem) Close() error {
	return f.root.Close()
}

// Store writes to a sibling temp file and renames it over key, so readers
// never see a partial blob.
func (f *Filesystem) Store(ctx context.Context, key string, data []byte) error {
	name, err := localKey(key)
	if err != nil {
		return err
	}

	if dir := path.Dir(name); dir != "." {
		if err := f.root.MkdirAll(dir, 0o755); err != nil {
			return mapFSError(err, "create directory")
		}
	}

	tmp := name + "." + uuid.NewString() + ".tmp"
	if err := f.root.WriteFile(tmp, data, 0o644); err != nil {
		return mapFSError(err, "write temp file")
	}
	if err := f.root.Rename(tmp, name); err != nil {
		f.root.Remove(tmp)
		return mapFSError(err, "rename temp file")
	}
	return nil
}

func (f *Filesystem) Retrieve(ctx context.Context, key string) ([]byte, error) {
	name, err := localKey(key)
	if err != nil {
		return nil, err
	}

	data, err := f.root.ReadFile(name)
	if err != nil {
		return nil, mapFSError(err, "read file")
	}
	return data, nil
}

// Delete removes key and then any parent directories it leaves empty.
// Deleting a missing key succeeds.
func (f *Filesystem) Delete(ctx context.Context, key string) error {
	name, err := localKey(key)
	if err != nil {
		return err
	}

	if err := f.root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return mapFSError(err, "remove file")
	}

	for dir := path.Dir(name); dir != "."; dir = path.Dir(dir) {
		if err := f.root.Remove(dir); err != nil {
			break
		}
	}
	return nil
}

func (f *Filesystem) Validate(ctx context.Context, key string) (bool, error) {
	name, err := localKey(key)
	if err != nil {
		return false, err
	}

	if _, err := f.root.Stat(name); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, mapFSError(err, "stat file")
	}
	return true, nil
}

// localKey rejects keys that are empty, absolute, or climb out of the root,
// and returns the cleaned slash-separated form.
func localKey(key string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(key)) {
		return "", ErrInvalidKey
	}
	return path.Clean(filepath.ToSlash(key)), nil
}

func mapFSError(err error, op string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
