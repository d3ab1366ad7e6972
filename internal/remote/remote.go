// Package remote moves snapshot archives between the local filesystem and an
// artifact store. Transfer failures are propagated as-is: retry policy, if
// any, belongs to the caller.
//
// Credentials are always explicit configuration. Nothing in this package
// reads the process environment; the command layer resolves tokens once at
// the boundary and passes them down.
package remote

import "context"

// Store is a remote artifact store holding snapshot files under string keys.
type Store interface {
	// Upload copies the local file at localPath to the store under key.
	Upload(ctx context.Context, localPath, key string) error

	// Download fetches the artifact under key into destDir and returns the
	// local path of the fetched file.
	Download(ctx context.Context, key, destDir string) (string, error)

	// Name identifies the store for logs.
	Name() string
}
