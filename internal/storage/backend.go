package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Backend is the storage payload interface. SwiftBase ships a
// filesystem implementation and an S3 implementation (S3Backend); the
// interface stays narrow so either can be swapped in without touching
// the service layer.
type Backend interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Stat(ctx context.Context, key string) (int64, error)
}

// FilesystemBackend stores each file at {basePath}/{key}.
type FilesystemBackend struct {
	basePath string
}

func NewFilesystemBackend(basePath string) *FilesystemBackend {
	return &FilesystemBackend{basePath: basePath}
}

// buildPath validates key against traversal and confines the result to
// basePath; every backend operation routes through it.
func (f *FilesystemBackend) buildPath(key string) (string, error) {
	if strings.Contains(key, "\x00") {
		return "", fmt.Errorf("invalid key: null byte not allowed")
	}
	if filepath.IsAbs(key) {
		return "", fmt.Errorf("invalid key: absolute paths not allowed")
	}

	fullPath := filepath.Join(f.basePath, key)
	cleanPath := filepath.Clean(fullPath)
	cleanBase := filepath.Clean(f.basePath)

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return "", fmt.Errorf("invalid key: path escapes base directory")
	}

	return cleanPath, nil
}

func (f *FilesystemBackend) Put(ctx context.Context, key string, r io.Reader) error {
	fullPath, err := f.buildPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

func (f *FilesystemBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := f.buildPath(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return file, nil
}

func (f *FilesystemBackend) Delete(ctx context.Context, key string) error {
	fullPath, err := f.buildPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing file: %w", err)
	}
	return nil
}

func (f *FilesystemBackend) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := f.buildPath(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("checking file: %w", err)
	}
	return true, nil
}

func (f *FilesystemBackend) Stat(ctx context.Context, key string) (int64, error) {
	fullPath, err := f.buildPath(key)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("stat file: %w", err)
	}
	return info.Size(), nil
}

// ListKeys walks basePath and returns every stored key (path relative
// to basePath), used by the sweep to find orphaned payloads.
func (f *FilesystemBackend) ListKeys(ctx context.Context) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(f.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(f.basePath, path)
		if relErr != nil {
			return relErr
		}
		keys = append(keys, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking storage root: %w", err)
	}
	return keys, nil
}
