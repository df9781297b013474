package entry_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"go.trai.ch/quire/internal/adapters/fs"
	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports/mocks"
	"go.trai.ch/quire/internal/engine/entry"
	"go.trai.ch/quire/internal/engine/hooks"
)

type staticScopes struct {
	scope *domain.Scope
	calls atomic.Int32
}

func (s *staticScopes) Load(context.Context, domain.NormalizedPath) (*domain.Scope, error) {
	s.calls.Add(1)
	return s.scope, nil
}

type fixture struct {
	input, output string
	service       *entry.Service
	scopes        *staticScopes
}

func newFixture(t *testing.T, files map[string]string, vars map[string]any) *fixture {
	t.Helper()
	root := t.TempDir()
	input := filepath.Join(root, "in")
	output := filepath.Join(root, "out")
	for name, content := range files {
		path := filepath.Join(input, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	require.NoError(t, os.MkdirAll(output, 0o750))

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()

	inSpace, err := domain.NewPathSpace(input)
	require.NoError(t, err)
	outSpace, err := domain.NewPathSpace(output)
	require.NoError(t, err)
	fc, err := fs.NewScopedFileContext(fs.NewResolver(), fs.NewWalker(), nil, input, output)
	require.NoError(t, err)

	scopes := &staticScopes{scope: domain.NewScope(vars)}
	return &fixture{
		input:   input,
		output:  output,
		scopes:  scopes,
		service: entry.NewService(inSpace, outSpace, fc, scopes, logger, nil),
	}
}

func (f *fixture) read(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.output, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func TestProcess_IncludesAndSubstitutes(t *testing.T) {
	f := newFixture(t, map[string]string{
		"docs/page.md":           "# {{ product.name }}\n{% include [note](_includes/note.md) %}\nend {{ missing }}\n",
		"docs/_includes/note.md": "Note for {{lang}}: {% include (../../shared/tip.md) %}",
		"shared/tip.md":          "tip",
	}, map[string]any{
		"product": map[string]any{"name": "Quire"},
		"lang":    "en",
	})

	artifact, err := f.service.Process(context.Background(), "docs/page.md")
	require.NoError(t, err)

	assert.Equal(t, "# Quire\nNote for en: tip\nend {{ missing }}\n", f.read(t, "docs/page.md"))
	assert.Equal(t, []domain.NormalizedPath{"docs/_includes/note.md", "shared/tip.md"}, artifact.Includes)

	extract := f.service.Relations().Extract("shared/tip.md")
	assert.True(t, extract.HasNode("docs/page.md"))
	data, err := f.service.Relations().NodeData("shared/tip.md")
	require.NoError(t, err)
	assert.Equal(t, domain.NodeTypeSource, data.Type())
}

func TestProcess_IncludeCycle(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md": "{% include (b.md) %}",
		"b.md": "{% include (c.md) %}",
		"c.md": "{% include (b.md) %}",
	}, nil)

	_, err := f.service.Process(context.Background(), "a.md")
	require.ErrorContains(t, err, domain.ErrIncludeCycle.Error())
}

func TestProcess_SharedIncludeReadOnce(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md":   "A {% include (inc.md) %}",
		"b.md":   "B {% include (inc.md) %}",
		"inc.md": "shared",
	}, nil)
	ctx := context.Background()

	_, err := f.service.Process(ctx, "a.md")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(f.input, "inc.md"), []byte("changed"), 0o600))
	_, err = f.service.Process(ctx, "b.md")
	require.NoError(t, err)
	assert.Equal(t, "B shared", f.read(t, "b.md"))

	f.service.Release("inc.md")
	_, err = f.service.Process(ctx, "b.md")
	require.NoError(t, err)
	assert.Equal(t, "B changed", f.read(t, "b.md"))
}

func TestDumpHook_TransformsArtifact(t *testing.T) {
	f := newFixture(t, map[string]string{"index.md": "hello {{ who }}"}, map[string]any{"who": "world"})
	f.service.Hooks().Dump.Tap("html", func(_ context.Context, a *entry.Artifact, scope *domain.Scope) (*entry.Artifact, error) {
		a.Output = domain.NormalizedPath(strings.TrimSuffix(a.Output.String(), ".md") + ".html")
		a.Content = []byte("<p>" + string(a.Content) + "</p>")
		return a, nil
	})

	var resolved atomic.Value
	f.service.Hooks().Resolved.Tap("record", func(_ context.Context, a *entry.Artifact) error {
		resolved.Store(a.Output)
		return nil
	})

	_, err := f.service.Process(context.Background(), "index.md")
	require.NoError(t, err)
	assert.Equal(t, "<p>hello world</p>", f.read(t, "index.html"))
	assert.Equal(t, domain.NormalizedPath("index.html"), resolved.Load())

	data, err := f.service.Relations().NodeData("index.md")
	require.NoError(t, err)
	assert.Equal(t, "index.html", data[entry.OutputKey])
}

func TestDumpHook_ErrorIsAnnotated(t *testing.T) {
	f := newFixture(t, map[string]string{"index.md": "x"}, nil)
	f.service.Hooks().Dump.Tap("renderer", func(context.Context, *entry.Artifact, *domain.Scope) (*entry.Artifact, error) {
		return nil, errors.New("render failed")
	})

	_, err := f.service.Process(context.Background(), "index.md")
	var hookErr *hooks.HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "Entry", hookErr.Service)
	assert.Equal(t, "Dump", hookErr.Hook)
	assert.Equal(t, "renderer", hookErr.Handler)

	_, statErr := os.Stat(filepath.Join(f.output, "index.md"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestProcess_MissingEntry(t *testing.T) {
	f := newFixture(t, nil, nil)
	_, err := f.service.Process(context.Background(), "nope.md")
	require.Error(t, err)
}

func TestRelease_PrunesEntryGraph(t *testing.T) {
	f := newFixture(t, map[string]string{
		"a.md":   "{% include (inc.md) %}",
		"inc.md": "x",
	}, nil)
	_, err := f.service.Process(context.Background(), "a.md")
	require.NoError(t, err)

	f.service.Release("a.md")
	assert.Equal(t, 0, f.service.Relations().Size())
}
