// Package fs provides the scoped filesystem adapter every build step goes through.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the root-relative, slash-separated path of every file under root,
// skipping VCS directories and anything matched by an ignore pattern.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil || rel == "." {
				return nil //nolint:nilerr // the root itself is never yielded
			}
			rel = filepath.ToSlash(rel)

			if skip := w.shouldSkip(rel, d, ignores); skip {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if d.IsDir() {
				return nil
			}
			if !yield(rel) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Walker) shouldSkip(rel string, d fs.DirEntry, ignores []string) bool {
	if d.IsDir() && (d.Name() == ".git" || d.Name() == ".jj") {
		return true
	}
	return ignored(rel, ignores)
}

// ignored reports whether rel, or a directory containing it, matches one of the patterns.
func ignored(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern+"/**", rel); ok {
			return true
		}
	}
	return false
}
