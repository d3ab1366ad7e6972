package archive

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Ext is a compound archive extension: the tar suffix chained with a
// compression suffix. All suffix appending and stripping goes through this
// type so the convention lives in one place.
type Ext string

const (
	ExtGzip Ext = ".tar.gz"
	ExtZstd Ext = ".tar.zst"
)

// Default is the extension used by Pack and expected by snapshot transport.
const Default = ExtGzip

// Matches reports whether path carries this compound extension.
func (e Ext) Matches(path string) bool {
	return strings.HasSuffix(filepath.Base(path), string(e)) && filepath.Base(path) != string(e)
}

// ArchivePath returns the archive file path for a source directory: the
// directory path with the compound extension appended, making the archive a
// sibling of the directory.
func (e Ext) ArchivePath(dir string) string {
	return filepath.Clean(dir) + string(e)
}

// SourcePath strips the compound extension from an archive path, yielding
// the directory path the archive restores to. It fails if the path does not
// carry the extension.
func (e Ext) SourcePath(archivePath string) (string, error) {
	if !e.Matches(archivePath) {
		return "", fmt.Errorf("%q does not have the %s extension", archivePath, e)
	}
	return strings.TrimSuffix(archivePath, string(e)), nil
}

// ExtOf returns the compound extension carried by path, if any.
func ExtOf(path string) (Ext, bool) {
	for _, e := range []Ext{ExtGzip, ExtZstd} {
		if e.Matches(path) {
			return e, true
		}
	}
	return "", false
}
