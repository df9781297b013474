package domain

import (
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// NormalizedPath is a forward-slash, root-relative path without a leading "./".
// Graph nodes, cache keys and scope checks use it as an opaque comparable key.
type NormalizedPath string

// PathKind classifies a raw path string.
type PathKind uint8

const (
	// PathAbsolute is a rooted filesystem path.
	PathAbsolute PathKind = iota
	// PathRelative is a relative path in host notation that still needs normalization.
	PathRelative
	// PathNormalized is already in NormalizedPath form.
	PathNormalized
)

// Normalize converts a relative path in any notation to its normalized form.
// The empty path and "." normalize to ".".
func Normalize(p string) NormalizedPath {
	p = filepath.ToSlash(p)
	p = path.Clean(p)
	p = strings.TrimPrefix(p, "./")
	if p == "" {
		return "."
	}
	return NormalizedPath(p)
}

// Classify reports which form the given path is in.
func Classify(p string) PathKind {
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return PathAbsolute
	}
	if string(Normalize(p)) == p {
		return PathNormalized
	}
	return PathRelative
}

// String returns the path as a plain string.
func (p NormalizedPath) String() string {
	return string(p)
}

// Dir returns the normalized parent directory ("." for top-level files).
func (p NormalizedPath) Dir() NormalizedPath {
	return NormalizedPath(path.Dir(string(p)))
}

// Base returns the last element of the path.
func (p NormalizedPath) Base() string {
	return path.Base(string(p))
}

// Ext returns the file extension including the dot.
func (p NormalizedPath) Ext() string {
	return path.Ext(string(p))
}

// Join appends elements to the path and normalizes the result.
func (p NormalizedPath) Join(elem ...string) NormalizedPath {
	parts := append([]string{string(p)}, elem...)
	return Normalize(path.Join(parts...))
}

// IsRoot reports whether the path denotes the root directory itself.
func (p NormalizedPath) IsRoot() bool {
	return p == "."
}

// Escapes reports whether the path points above its root.
func (p NormalizedPath) Escapes() bool {
	return p == ".." || strings.HasPrefix(string(p), "../")
}

// HasPrefixDir reports whether p equals dir or lives below it.
func (p NormalizedPath) HasPrefixDir(dir NormalizedPath) bool {
	if dir.IsRoot() {
		return !p.Escapes()
	}
	return p == dir || strings.HasPrefix(string(p), string(dir)+"/")
}

// Ancestors returns every directory from the root down to p's directory, outermost first.
func (p NormalizedPath) Ancestors() []NormalizedPath {
	dir := p.Dir()
	if dir.IsRoot() {
		return []NormalizedPath{"."}
	}
	parts := strings.Split(string(dir), "/")
	out := make([]NormalizedPath, 0, len(parts)+1)
	out = append(out, ".")
	for i := range parts {
		out = append(out, NormalizedPath(strings.Join(parts[:i+1], "/")))
	}
	return out
}

// PathSpace maps between absolute host paths and normalized paths under a single root.
type PathSpace struct {
	root string
}

// NewPathSpace creates a PathSpace rooted at the given directory.
func NewPathSpace(root string) (PathSpace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return PathSpace{}, zerr.With(zerr.Wrap(err, "failed to resolve root"), "root", root)
	}
	return PathSpace{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute root directory.
func (s PathSpace) Root() string {
	return s.root
}

// Abs returns the absolute host path of a normalized path.
func (s PathSpace) Abs(p NormalizedPath) string {
	return filepath.Join(s.root, filepath.FromSlash(string(p)))
}

// Rel normalizes any path against the root. Absolute paths are made relative to the root;
// relative paths are taken as already relative to it.
func (s PathSpace) Rel(p string) (NormalizedPath, error) {
	if Classify(p) != PathAbsolute {
		return Normalize(p), nil
	}
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to relativize path"), "path", p)
	}
	return Normalize(rel), nil
}

// Contains reports whether an absolute path lives inside the root.
func (s PathSpace) Contains(p string) bool {
	rel, err := s.Rel(p)
	return err == nil && !rel.Escapes()
}
