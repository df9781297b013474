package fs

import (
	"errors"
	iofs "io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
)

var _ ports.FileContext = (*ScopedFileContext)(nil)

// ScopedFileContext performs file operations only inside its scope roots.
// A path is in scope when its real path, with symlinks followed, lies under one of the roots.
type ScopedFileContext struct {
	scopes   []string
	resolver *Resolver
	walker   *Walker
	metrics  ports.Metrics

	writes singleflight.Group
	dirs   sync.Map // real directory path -> *dirOnce
}

type dirOnce struct {
	once sync.Once
	err  error
}

// NewScopedFileContext creates a context bounded by scopes. metrics may be nil.
func NewScopedFileContext(resolver *Resolver, walker *Walker, metrics ports.Metrics, scopes ...string) (*ScopedFileContext, error) {
	c := &ScopedFileContext{
		resolver: resolver,
		walker:   walker,
		metrics:  metrics,
	}
	for _, scope := range scopes {
		abs, err := filepath.Abs(scope)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to resolve scope"), "scope", scope)
		}
		real, _, err := resolver.Resolve(abs)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(c.scopes, real) {
			c.scopes = append(c.scopes, real)
		}
	}
	return c, nil
}

// Scopes returns the registered scope roots.
func (c *ScopedFileContext) Scopes() iter.Seq[string] {
	return slices.Values(c.scopes)
}

// check resolves path and fails with an InsecureAccessError unless it lies inside a scope.
func (c *ScopedFileContext) check(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return "", c.insecure(path, []string{path})
	}
	real, stack, err := c.resolver.Resolve(path)
	if err != nil {
		return "", err
	}
	for _, scope := range c.scopes {
		if within(real, scope) {
			return real, nil
		}
	}
	return "", c.insecure(path, stack)
}

func (c *ScopedFileContext) insecure(path string, stack []string) error {
	return &domain.InsecureAccessError{
		Path:   path,
		Stack:  stack,
		Scopes: slices.Clone(c.scopes),
	}
}

// Read returns the content of a file.
func (c *ScopedFileContext) Read(path string) ([]byte, error) {
	real, err := c.check(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(real) //nolint:gosec // path checked against scopes
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read file"), "path", path)
	}
	return data, nil
}

// Exists reports whether path exists. Paths outside every scope never exist.
func (c *ScopedFileContext) Exists(path string) bool {
	real, err := c.check(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(real)
	return err == nil
}

// Write creates path with content, creating parent directories as needed.
// Concurrent writes of one path share a single physical write. Unless force is set,
// a file that already exists is left untouched.
func (c *ScopedFileContext) Write(path string, content []byte, force bool) error {
	real, err := c.check(path)
	if err != nil {
		return err
	}

	key := real
	if force {
		key += "\x00force"
	}
	_, err, _ = c.writes.Do(key, func() (any, error) {
		if !force && c.exists(real) {
			c.observeWrite("skipped")
			return nil, nil
		}
		if err := c.mkdir(filepath.Dir(real)); err != nil {
			return nil, err
		}
		// Unlink first so a hardlinked destination does not mutate the shared inode.
		if err := os.Remove(real); err != nil && !errors.Is(err, iofs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(err, "failed to replace file"), "path", path)
		}
		if err := os.WriteFile(real, content, domain.FilePerm); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to write file"), "path", path)
		}
		c.observeWrite("written")
		return nil, nil
	})
	return err
}

func (c *ScopedFileContext) exists(real string) bool {
	_, err := os.Lstat(real)
	return err == nil
}

// mkdir creates dir and its parents, at most once per directory for the lifetime of c.
func (c *ScopedFileContext) mkdir(dir string) error {
	v, _ := c.dirs.LoadOrStore(dir, &dirOnce{})
	d, _ := v.(*dirOnce)
	d.once.Do(func() {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			d.err = zerr.With(zerr.Wrap(err, "failed to create directory"), "dir", dir)
		}
	})
	return d.err
}

func (c *ScopedFileContext) observeWrite(result string) {
	if c.metrics != nil {
		c.metrics.IncWrite(result)
	}
}
