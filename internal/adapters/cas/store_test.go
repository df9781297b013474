package cas_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/quire/internal/adapters/cas"
	"go.trai.ch/quire/internal/core/domain"
)

func TestStore_MissingFileYieldsEmptyState(t *testing.T) {
	store, err := cas.NewStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	state, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, domain.BuildStateVersion, state.Version)
	assert.Empty(t, state.Graphs)
	assert.Empty(t, state.Fingerprints)
}

func TestStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".quire", "state.json")

	g := domain.NewGraph()
	g.AddNode("docs/index.md", domain.TypedNode(domain.NodeTypeEntry))
	g.AddNode("docs/_inc.md", domain.TypedNode(domain.NodeTypeSource))
	require.NoError(t, g.AddDependency("docs/index.md", "docs/_inc.md"))
	serialized, err := g.Serialize()
	require.NoError(t, err)

	state := domain.NewBuildState()
	state.Graphs[domain.GraphEntry] = serialized
	state.Fingerprints["docs/index.md"] = "00ff00ff00ff00ff"

	first, err := cas.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(state))

	second, err := cas.NewStore(path)
	require.NoError(t, err)
	loaded, err := second.Load()
	require.NoError(t, err)

	assert.True(t, serialized.Equal(loaded.Graphs[domain.GraphEntry]))
	assert.Equal(t, "00ff00ff00ff00ff", loaded.Fingerprints["docs/index.md"])
	assert.False(t, loaded.Timestamp.IsZero())

	restored, err := domain.Deserialize(loaded.Graphs[domain.GraphEntry])
	require.NoError(t, err)
	deps, err := restored.DirectDependenciesOf("docs/index.md")
	require.NoError(t, err)
	assert.Equal(t, []domain.NormalizedPath{"docs/_inc.md"}, deps)
}

func TestStore_OtherVersionIsDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 0, "fingerprints": {"a.md": "x"}}`), 0o600))

	store, err := cas.NewStore(path)
	require.NoError(t, err)
	state, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, state.Fingerprints)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := cas.NewStore(path)
	require.NoError(t, err)
	_, err = store.Load()
	require.Error(t, err)
}

func TestStore_SaveLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := cas.NewStore(filepath.Join(dir, "state.json"))
	require.NoError(t, err)

	require.NoError(t, store.Save(domain.NewBuildState()))
	require.NoError(t, store.Save(domain.NewBuildState()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestStore_EmptyPath(t *testing.T) {
	_, err := cas.NewStore("")
	require.Error(t, err)
}
