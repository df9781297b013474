package fs_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/quire/internal/adapters/fs"
)

func TestHasher_Fingerprint(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.md")
	b := filepath.Join(root, "b.md")
	writeFile(t, a, "alpha")
	writeFile(t, b, "beta")
	c := newContext(t, nil, root)
	h := fs.NewHasher()

	first, err := h.Fingerprint(c, []string{a, b}, "scope")
	require.NoError(t, err)
	reordered, err := h.Fingerprint(c, []string{b, a, a}, "scope")
	require.NoError(t, err)
	assert.Equal(t, first, reordered)

	otherExtra, err := h.Fingerprint(c, []string{a, b}, "other")
	require.NoError(t, err)
	assert.NotEqual(t, first, otherExtra)

	writeFile(t, b, "changed")
	changed, err := h.Fingerprint(c, []string{a, b}, "scope")
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)

	missing, err := h.Fingerprint(c, []string{filepath.Join(root, "gone.md")})
	require.NoError(t, err)
	assert.Len(t, missing, 16)
}
