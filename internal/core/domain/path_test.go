package domain_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/quire/internal/core/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want domain.NormalizedPath
	}{
		{"", "."},
		{".", "."},
		{"./docs/index.md", "docs/index.md"},
		{"docs//a/../b.md", "docs/b.md"},
		{"docs/", "docs"},
		{"../outside.md", "../outside.md"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Normalize(tt.in))
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, domain.PathAbsolute, domain.Classify("/abs/path"))
	assert.Equal(t, domain.PathNormalized, domain.Classify("docs/index.md"))
	assert.Equal(t, domain.PathRelative, domain.Classify("./docs/index.md"))
}

func TestNormalizedPath_Helpers(t *testing.T) {
	p := domain.NormalizedPath("docs/api/index.md")

	assert.Equal(t, domain.NormalizedPath("docs/api"), p.Dir())
	assert.Equal(t, "index.md", p.Base())
	assert.Equal(t, ".md", p.Ext())
	assert.Equal(t, domain.NormalizedPath("docs/api/presets.yaml"), p.Dir().Join(domain.PresetsFileName))
	assert.Equal(t, []domain.NormalizedPath{".", "docs", "docs/api"}, p.Ancestors())
	assert.Equal(t, []domain.NormalizedPath{"."}, domain.NormalizedPath("index.md").Ancestors())

	assert.True(t, p.HasPrefixDir("docs"))
	assert.True(t, p.HasPrefixDir("."))
	assert.False(t, p.HasPrefixDir("doc"))
	assert.True(t, domain.NormalizedPath("../x").Escapes())
}

func TestPathSpace(t *testing.T) {
	root := t.TempDir()
	space, err := domain.NewPathSpace(root)
	require.NoError(t, err)

	rel, err := space.Rel(filepath.Join(root, "docs", "index.md"))
	require.NoError(t, err)
	assert.Equal(t, domain.NormalizedPath("docs/index.md"), rel)

	rel, err = space.Rel("./docs/index.md")
	require.NoError(t, err)
	assert.Equal(t, domain.NormalizedPath("docs/index.md"), rel)

	assert.Equal(t, filepath.Join(root, "docs", "index.md"), space.Abs("docs/index.md"))
	assert.True(t, space.Contains(filepath.Join(root, "a")))
	assert.False(t, space.Contains(filepath.Dir(root)))
}
