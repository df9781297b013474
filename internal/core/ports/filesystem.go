// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"iter"
)

// GlobOptions tunes FileContext.Glob.
type GlobOptions struct {
	// Cwd is the absolute directory the pattern is matched against.
	Cwd string
	// Ignore lists patterns whose matches are dropped.
	Ignore []string
	// NoDot excludes dotfiles, which are included by default.
	NoDot bool
	// NoFollow disables following symlinks, which are followed by default.
	NoFollow bool
}

// FileContext is the only gateway to disk. Every path is absolute and must resolve inside
// one of the registered scopes.
type FileContext interface {
	Read(path string) ([]byte, error)
	// Write creates or replaces a file. Without force, an existing file is left alone.
	Write(path string, content []byte, force bool) error
	Exists(path string) bool
	// Glob returns Cwd-relative, slash-separated files matching pattern, sorted.
	Glob(pattern string, opts GlobOptions) ([]string, error)
	// Copy hardlinks a file, or every file of a directory, into the mirrored location under to.
	Copy(ctx context.Context, from, to string, ignore []string) error
	// Scopes returns the registered scope roots.
	Scopes() iter.Seq[string]
}

// FileContextFactory opens a FileContext bounded by the given scope roots.
type FileContextFactory interface {
	Open(scopes ...string) (FileContext, error)
}

// Hasher fingerprints file contents for incremental rebuilds.
type Hasher interface {
	// Fingerprint hashes the given files, read through files, plus extra strings into a stable hex digest.
	// Missing files contribute a marker instead of failing.
	Fingerprint(files FileContext, paths []string, extra ...string) (string, error)
}
