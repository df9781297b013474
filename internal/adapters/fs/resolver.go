package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/zerr"
)

const realpathCacheSize = 4096

// Resolver follows symlinks to find where a path really points. Resolved directories are cached
// and revalidated on every hit.
type Resolver struct {
	dirs *lru.Cache[string, string]
}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	cache, err := lru.New[string, string](realpathCacheSize)
	if err != nil {
		// Only a non-positive size fails.
		panic(err)
	}
	return &Resolver{dirs: cache}
}

// Resolve returns the real path of p together with the stack of paths visited while resolving it.
// p need not exist: the deepest existing ancestor is resolved and the missing tail appended.
func (r *Resolver) Resolve(p string) (string, []string, error) {
	p = filepath.Clean(p)
	stack := []string{p}

	var tail []string
	current := p
	for {
		if real, ok := r.dirs.Get(current); ok {
			if symlinkFree(real) {
				stack = append(stack, real)
				return joinTail(real, tail), stack, nil
			}
			r.dirs.Remove(current)
		}

		real, err := filepath.EvalSymlinks(current)
		if err == nil {
			if len(tail) > 0 {
				r.dirs.Add(current, real)
			}
			if real != current {
				stack = append(stack, real)
			}
			return joinTail(real, tail), stack, nil
		}
		if !errors.Is(err, iofs.ErrNotExist) {
			return "", stack, zerr.With(zerr.Wrap(err, "failed to resolve path"), "path", p)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return p, stack, nil
		}
		tail = append([]string{filepath.Base(current)}, tail...)
		current = parent
		stack = append(stack, current)
	}
}

// Forget drops cached resolutions at or below dir.
func (r *Resolver) Forget(dir string) {
	dir = filepath.Clean(dir)
	for _, key := range r.dirs.Keys() {
		if within(key, dir) {
			r.dirs.Remove(key)
		}
	}
}

// symlinkFree reports whether dir is still a directory reached without following any symlink.
func symlinkFree(dir string) bool {
	info, err := os.Lstat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	for parent := filepath.Dir(dir); parent != dir; dir, parent = parent, filepath.Dir(parent) {
		info, err := os.Lstat(parent)
		if err != nil || info.Mode()&os.ModeSymlink != 0 {
			return false
		}
	}
	return true
}

func joinTail(real string, tail []string) string {
	if len(tail) == 0 {
		return real
	}
	return filepath.Join(append([]string{real}, tail...)...)
}

// within reports whether p equals root or lives below it.
func within(p, root string) bool {
	if p == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(p, root)
}
