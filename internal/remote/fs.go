package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// FilesystemStore keeps snapshot artifacts in a directory tree. It backs
// local workflows and tests with the same Store contract as S3.
type FilesystemStore struct {
	fs afero.Fs
}

// NewFilesystemStore creates a store over the given filesystem root.
func NewFilesystemStore(fs afero.Fs) *FilesystemStore {
	return &FilesystemStore{fs: fs}
}

// NewFilesystemStoreFromPath creates a store rooted at path on the OS
// filesystem, creating the directory if needed.
func NewFilesystemStoreFromPath(path string) (*FilesystemStore, error) {
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(cleanPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory %s: %w", cleanPath, err)
	}
	return NewFilesystemStore(afero.NewBasePathFs(afero.NewOsFs(), cleanPath)), nil
}

func (s *FilesystemStore) Name() string {
	return fmt.Sprintf("filesystem(%s)", s.fs.Name())
}

// Upload copies the local file at localPath into the store under key.
func (s *FilesystemStore) Upload(ctx context.Context, localPath, key string) (err error) {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func() {
		err = errors.Join(err, src.Close())
	}()

	if dir := filepath.Dir(key); dir != "" && dir != "." {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	dst, err := s.fs.Create(key)
	if err != nil {
		return fmt.Errorf("failed to create artifact %s: %w", key, err)
	}
	defer func() {
		err = errors.Join(err, dst.Close())
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to store artifact %s: %w", key, err)
	}
	return nil
}

// Download copies the artifact under key into destDir and returns its path.
func (s *FilesystemStore) Download(ctx context.Context, key, destDir string) (localPath string, err error) {
	src, err := s.fs.Open(key)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact %s: %w", key, err)
	}
	defer func() {
		err = errors.Join(err, src.Close())
	}()

	localPath = filepath.Join(destDir, filepath.Base(key))
	dst, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	defer func() {
		err = errors.Join(err, dst.Close())
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to fetch artifact %s: %w", key, err)
	}
	return localPath, nil
}

var _ Store = (*FilesystemStore)(nil)
