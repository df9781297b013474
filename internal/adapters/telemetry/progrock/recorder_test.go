package progrock_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vito "github.com/vito/progrock"

	"go.trai.ch/quire/internal/adapters/telemetry/progrock"
	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports"
)

// tape keeps the latest state of every vertex it is sent.
type tape struct {
	mu       sync.Mutex
	vertices map[string]*vito.Vertex
	order    []string
	closed   bool
}

func newTape() *tape {
	return &tape{vertices: make(map[string]*vito.Vertex)}
}

func (t *tape) WriteStatus(update *vito.StatusUpdate) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, v := range update.Vertexes {
		if _, ok := t.vertices[v.Id]; !ok {
			t.order = append(t.order, v.Id)
		}
		t.vertices[v.Id] = v
	}
	return nil
}

func (t *tape) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *tape) byName(name string) []*vito.Vertex {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*vito.Vertex
	for _, id := range t.order {
		if v := t.vertices[id]; v.Name == name {
			out = append(out, v)
		}
	}
	return out
}

func TestNew(t *testing.T) {
	recorder := progrock.New()
	assert.NotNil(t, recorder)
	require.NoError(t, recorder.Close())
}

func TestRecorder_VertexLifecycle(t *testing.T) {
	w := newTape()
	recorder := progrock.NewRecorder(w)

	ctx, ok := recorder.Record(context.Background(), "entry docs/index.md")
	fromCtx, found := ports.VertexFromContext(ctx)
	require.True(t, found)
	assert.Equal(t, ok, fromCtx)

	_, err := ok.Stdout().Write([]byte("rendered\n"))
	require.NoError(t, err)
	ok.Log(domain.LogLevelInfo, "done")
	ok.Complete(nil)

	_, failed := recorder.Record(context.Background(), "entry docs/broken.md")
	failed.Log(domain.LogLevelError, "bad include")
	failed.Complete(errors.New("include cycle"))

	_, cached := recorder.Record(context.Background(), "entry docs/cached.md")
	cached.Cached()
	cached.Complete(nil)

	require.NoError(t, recorder.Close())
	assert.True(t, w.closed)

	done := w.byName("entry docs/index.md")
	require.Len(t, done, 1)
	assert.NotNil(t, done[0].Completed)
	assert.Nil(t, done[0].Error)

	broken := w.byName("entry docs/broken.md")
	require.Len(t, broken, 1)
	require.NotNil(t, broken[0].Error)
	assert.Contains(t, *broken[0].Error, "include cycle")

	hit := w.byName("entry docs/cached.md")
	require.Len(t, hit, 1)
	assert.True(t, hit[0].Cached)
}

func TestRecorder_SameNameGetsNewVertex(t *testing.T) {
	w := newTape()
	recorder := progrock.NewRecorder(w)

	for range 2 {
		_, v := recorder.Record(context.Background(), "toc docs/toc.yaml")
		v.Complete(nil)
	}

	assert.Len(t, w.byName("toc docs/toc.yaml"), 2)
}
