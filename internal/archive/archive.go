// Package archive packs a directory tree into a single compressed tar file
// and restores it. The archive is always a sibling of the directory it was
// packed from, and its top-level entry is the directory's base name, so an
// archive extracted anywhere reconstructs a directory with the same name.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Pack archives dir into a gzip-compressed tar file at dir + ".tar.gz",
// overwriting any existing file at that path, and returns the archive path.
// The source directory is never modified.
func Pack(dir string) (string, error) {
	return PackAs(dir, Default)
}

// PackAs is Pack with an explicit compound extension selecting the
// compression algorithm.
func PackAs(dir string, ext Ext) (archivePath string, err error) {
	dir = filepath.Clean(dir)

	// Validate before creating anything so a failed pack leaves no file.
	info, statErr := os.Stat(dir)
	if statErr != nil || !info.IsDir() {
		return "", fmt.Errorf("source directory %s: %w", dir, ErrNotFound)
	}

	archivePath = ext.ArchivePath(dir)
	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive %s: %w", archivePath, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	compressor, err := newCompressor(f, ext)
	if err != nil {
		return "", err
	}
	defer func() {
		err = errors.Join(err, compressor.Close())
	}()

	tw := tar.NewWriter(compressor)
	defer func() {
		err = errors.Join(err, tw.Close())
	}()

	// Entries are named relative to dir's parent so the single top-level
	// entry is the base name, never the absolute path.
	root := filepath.Dir(dir)
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		if !fi.Mode().IsRegular() && !fi.IsDir() {
			return nil
		}

		header, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return fmt.Errorf("failed to build header for %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if fi.IsDir() {
			header.Name += "/"
		}

		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", path, err)
		}
		if fi.IsDir() {
			return nil
		}
		return copyFileTo(tw, path)
	})
	if walkErr != nil {
		return "", fmt.Errorf("failed to pack %s: %w", dir, walkErr)
	}

	return archivePath, nil
}

// Unpack restores the directory tree from archivePath into the archive's
// parent directory, overwriting entries that already exist. It returns the
// archive path with the compound extension stripped.
//
// The returned path is derived from the archive's name, not verified against
// its contents: an archive renamed after packing still extracts under its
// internal top-level entry name, which then differs from the returned path.
func Unpack(archivePath string) (dir string, err error) {
	ext, ok := ExtOf(archivePath)
	if !ok {
		return "", fmt.Errorf("%s has no archive extension: %w", archivePath, ErrCorruptArchive)
	}

	f, err := os.Open(archivePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("archive %s: %w", archivePath, ErrNotFound)
		}
		return "", fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	dec, err := newDecompressor(f, ext)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", archivePath, ErrCorruptArchive, err)
	}
	defer dec.close()

	parent := filepath.Dir(archivePath)
	tr := tar.NewReader(dec.reader)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w: %w", archivePath, ErrCorruptArchive, err)
		}

		name := filepath.FromSlash(header.Name)
		if filepath.IsAbs(name) || strings.HasPrefix(filepath.Clean(name), "..") {
			return "", fmt.Errorf("%s: entry %q escapes destination: %w", archivePath, header.Name, ErrCorruptArchive)
		}
		target := filepath.Join(parent, name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, fs.FileMode(header.Mode).Perm()); err != nil {
				return "", fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return "", fmt.Errorf("failed to create directory for %s: %w", target, err)
			}
			if err := writeFileFrom(tr, target, fs.FileMode(header.Mode).Perm()); err != nil {
				return "", err
			}
		default:
			// Symlinks and special files are not produced by Pack.
		}
	}

	return ext.SourcePath(archivePath)
}

func copyFileTo(tw *tar.Writer, path string) (err error) {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, src.Close())
	}()

	if _, err := io.Copy(tw, src); err != nil {
		return fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return nil
}

func writeFileFrom(r io.Reader, target string, mode fs.FileMode) (err error) {
	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer func() {
		err = errors.Join(err, dst.Close())
	}()

	if _, err := io.Copy(dst, r); err != nil {
		return fmt.Errorf("failed to extract %s: %w", target, err)
	}
	return nil
}

func newCompressor(w io.Writer, ext Ext) (io.WriteCloser, error) {
	switch ext {
	case ExtGzip:
		return gzip.NewWriter(w), nil
	case ExtZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("unsupported archive extension: %s", ext)
	}
}

// decompressor pairs a decoded stream with its cleanup, since the gzip and
// zstd readers close differently.
type decompressor struct {
	reader io.Reader
	close  func()
}

func newDecompressor(r io.Reader, ext Ext) (*decompressor, error) {
	switch ext {
	case ExtGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &decompressor{reader: gr, close: func() { _ = gr.Close() }}, nil
	case ExtZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &decompressor{reader: zr, close: zr.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported archive extension: %s", ext)
	}
}
