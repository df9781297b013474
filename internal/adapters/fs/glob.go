package fs

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/zerr"

	"go.trai.ch/quire/internal/core/ports"
)

// Glob matches pattern against opts.Cwd. By default dotfiles are included, only files are returned
// and symlinks are followed. Matches resolving outside the allowed roots are dropped. Results are
// slash-separated, Cwd-relative and sorted.
func (c *ScopedFileContext) Glob(pattern string, opts ports.GlobOptions) ([]string, error) {
	cwd, err := c.check(opts.Cwd)
	if err != nil {
		return nil, err
	}

	globOpts := []doublestar.GlobOption{doublestar.WithFilesOnly()}
	if opts.NoFollow {
		globOpts = append(globOpts, doublestar.WithNoFollow())
	}
	matches, err := doublestar.Glob(os.DirFS(cwd), pattern, globOpts...)
	if err != nil {
		return nil, zerr.With(zerr.With(zerr.Wrap(err, "failed to glob"), "pattern", pattern), "cwd", opts.Cwd)
	}

	out := matches[:0]
	for _, match := range matches {
		if opts.NoDot && hasDotSegment(match) {
			continue
		}
		if ignored(match, opts.Ignore) {
			continue
		}
		// Followed symlinks may lead out of the allowed roots.
		if _, err := c.check(filepath.Join(cwd, filepath.FromSlash(match))); err != nil {
			continue
		}
		out = append(out, match)
	}
	slices.Sort(out)
	return out, nil
}

func hasDotSegment(p string) bool {
	for segment := range strings.SplitSeq(p, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}
