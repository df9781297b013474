package fs

import (
	"context"
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"

	"go.trai.ch/quire/internal/core/domain"
)

// copyConcurrency bounds how many files a directory copy clones at once.
const copyConcurrency = 32

// Copy hardlinks from to to. A directory is mirrored file by file, skipping ignore matches.
func (c *ScopedFileContext) Copy(ctx context.Context, from, to string, ignore []string) error {
	src, err := c.check(from)
	if err != nil {
		return err
	}
	if _, err := c.check(to); err != nil {
		return err
	}

	info, err := os.Stat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat copy source"), "path", from)
	}
	if !info.IsDir() {
		return c.clone(from, to)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(copyConcurrency)
	for rel := range c.walker.WalkFiles(src, ignore) {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			native := filepath.FromSlash(rel)
			return c.clone(filepath.Join(from, native), filepath.Join(to, native))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// clone hardlinks one file, falling back to a byte copy when linking is not possible.
func (c *ScopedFileContext) clone(from, to string) error {
	src, err := c.check(from)
	if err != nil {
		return err
	}
	dst, err := c.check(to)
	if err != nil {
		return err
	}
	if err := c.mkdir(filepath.Dir(dst)); err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to replace file"), "path", to)
	}
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	return copyBytes(src, dst)
}

func copyBytes(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // path checked against scopes
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open copy source"), "path", src)
	}
	defer in.Close() //nolint:errcheck // read-only

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.FilePerm) //nolint:gosec // path checked against scopes
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create copy target"), "path", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return zerr.With(zerr.Wrap(err, "failed to copy file"), "path", dst)
	}
	if err := out.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close copy target"), "path", dst)
	}
	return nil
}
