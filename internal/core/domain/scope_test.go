package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/quire/internal/core/domain"
)

func TestScope_IsImmutable(t *testing.T) {
	source := map[string]any{
		"lang":    "en",
		"product": map[string]any{"name": "quire"},
		"tags":    []any{"a", "b"},
	}
	scope := domain.NewScope(source)

	// Mutating the source after construction has no effect.
	source["lang"] = "ru"
	source["product"].(map[string]any)["name"] = "changed"

	v, ok := scope.Get("lang")
	assert.True(t, ok)
	assert.Equal(t, "en", v)

	// Mutating what accessors return has no effect either.
	product, _ := scope.Get("product")
	product.(map[string]any)["name"] = "changed"
	m := scope.Map()
	m["lang"] = "de"
	m["tags"].([]any)[0] = "z"

	assert.Equal(t, domain.Lookup{Value: "quire", Found: true}, scope.Lookup("product.name"))
	assert.Equal(t, domain.Lookup{Value: "en", Found: true}, scope.Lookup("lang"))
	assert.Equal(t, []any{"a", "b"}, scope.Map()["tags"])
	assert.Equal(t, []string{"lang", "product", "tags"}, scope.Keys())
	assert.Equal(t, 3, scope.Len())
}

func TestScope_Lookup_Missing(t *testing.T) {
	scope := domain.NewScope(map[string]any{"a": map[string]any{"b": 1}})

	assert.Equal(t, domain.Lookup{}, scope.Lookup("missing"))
	assert.Equal(t, domain.Lookup{}, scope.Lookup("a.c"))
	assert.Equal(t, domain.Lookup{}, scope.Lookup("a.b.c"))
	assert.Equal(t, 0, domain.NewScope(nil).Len())
}

func TestPresets_Layers(t *testing.T) {
	presets := domain.Presets{
		"default":  {"a": 1},
		"internal": {"a": 2},
	}

	assert.Equal(t, []map[string]any{{"a": 1}}, presets.Layers("default"))
	assert.Equal(t, []map[string]any{{"a": 1}, {"a": 2}}, presets.Layers("internal"))
	assert.Equal(t, []map[string]any{{"a": 1}}, presets.Layers("external"))
	assert.Empty(t, domain.Presets{}.Layers("internal"))
}

func TestToc_Walk(t *testing.T) {
	toc := &domain.Toc{Items: []*domain.TocItem{
		{Name: "A", Href: "a.md", Items: []*domain.TocItem{{Href: "b.md"}}},
		nil,
		{Href: "https://example.com"},
	}}

	var hrefs []string
	toc.Walk(func(item *domain.TocItem) { hrefs = append(hrefs, item.Href) })

	assert.Equal(t, []string{"a.md", "b.md", "https://example.com"}, hrefs)
	assert.True(t, domain.IsExternalHref("https://example.com"))
	assert.True(t, domain.IsExternalHref("#anchor"))
	assert.False(t, domain.IsExternalHref("a.md"))
	assert.True(t, domain.IsTocFile("docs/toc.yaml"))
	assert.True(t, domain.IsPresetsFile("presets.yaml"))
}
