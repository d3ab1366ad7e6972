package archive

import "errors"

var (
	// ErrNotFound indicates a missing source directory or archive file.
	ErrNotFound = errors.New("not found")

	// ErrCorruptArchive indicates a file that exists but cannot be read
	// as a compressed tar stream.
	ErrCorruptArchive = errors.New("corrupt or unreadable archive")
)
