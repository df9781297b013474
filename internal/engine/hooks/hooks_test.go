package hooks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/quire/internal/engine/hooks"
)

func TestWaterfall_ThreadsValueInOrder(t *testing.T) {
	h := hooks.NewWaterfall[string, int]("Vars", "PresetsLoaded")
	h.Tap("a", func(_ context.Context, v string, n int) (string, error) { return v + "a", nil })
	h.Tap("b", func(_ context.Context, v string, n int) (string, error) { return v + "b", nil })

	out, err := h.Call(context.Background(), "x", 1)
	require.NoError(t, err)
	assert.Equal(t, "xab", out)
	assert.Equal(t, []string{"a", "b"}, h.Taps())
	assert.True(t, h.IsUsed())
}

func TestWaterfall_AnnotatesFailure(t *testing.T) {
	h := hooks.NewWaterfall[string, struct{}]("Toc", "Loaded")
	boom := errors.New("boom")
	h.Tap("first", func(_ context.Context, v string, _ struct{}) (string, error) { return v + "1", nil })
	h.Tap("broken", func(_ context.Context, v string, _ struct{}) (string, error) { return "", boom })
	h.Tap("never", func(_ context.Context, v string, _ struct{}) (string, error) {
		t.Fatal("handler after failure must not run")
		return v, nil
	})

	out, err := h.Call(context.Background(), "v", struct{}{})
	require.Error(t, err)
	assert.Equal(t, "v1", out)

	var hookErr *hooks.HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "Toc", hookErr.Service)
	assert.Equal(t, "Loaded", hookErr.Hook)
	assert.Equal(t, "broken", hookErr.Handler)
	assert.Equal(t, hooks.KindWaterfall, hookErr.Type)
	assert.ErrorIs(t, err, boom)
}

func TestWaterfall_RecoversPanic(t *testing.T) {
	h := hooks.NewWaterfall[int, int]("Entry", "Dump")
	h.Tap("panics", func(context.Context, int, int) (int, error) { panic("bad") })

	_, err := h.Call(context.Background(), 0, 0)
	require.ErrorContains(t, err, "handler panicked: bad")
	require.ErrorContains(t, err, `"panics"`)
}

func TestParallel_RunsAllHandlers(t *testing.T) {
	h := hooks.NewParallel[int]("Entry", "Resolved")
	var sum atomic.Int64
	for _, name := range []string{"a", "b", "c"} {
		h.Tap(name, func(_ context.Context, n int) error {
			sum.Add(int64(n))
			return nil
		})
	}

	require.NoError(t, h.Call(context.Background(), 2))
	assert.Equal(t, int64(6), sum.Load())
}

func TestParallel_ReturnsHandlerError(t *testing.T) {
	h := hooks.NewParallel[int]("Entry", "Resolved")
	h.Tap("ok", func(context.Context, int) error { return nil })
	h.Tap("fails", func(context.Context, int) error { return errors.New("nope") })

	err := h.Call(context.Background(), 1)
	var hookErr *hooks.HookError
	require.ErrorAs(t, err, &hookErr)
	assert.Equal(t, "fails", hookErr.Handler)
	assert.Equal(t, hooks.KindParallel, hookErr.Type)
}

func TestSync_StopsAtFirstFailure(t *testing.T) {
	h := hooks.NewSync[string]("Logger", "Warn")
	var seen []string
	h.Tap("record", func(s string) error {
		seen = append(seen, s)
		return nil
	})
	h.Tap("reject", func(string) error { return errors.New("rejected") })
	h.Tap("after", func(s string) error {
		seen = append(seen, "after")
		return nil
	})

	err := h.Call("msg")
	require.ErrorContains(t, err, "rejected")
	assert.Equal(t, []string{"msg"}, seen)
}

func TestNestedHookKeepsInnermostAnnotation(t *testing.T) {
	inner := hooks.NewSync[int]("Inner", "Event")
	inner.Tap("deep", func(int) error { return errors.New("deep failure") })

	outer := hooks.NewSync[int]("Outer", "Event")
	outer.Tap("relay", func(n int) error { return inner.Call(n) })

	var hookErr *hooks.HookError
	require.ErrorAs(t, outer.Call(1), &hookErr)
	assert.Equal(t, "Inner", hookErr.Service)
	assert.Equal(t, "deep", hookErr.Handler)
}

func TestHookMap_CreatesLazily(t *testing.T) {
	created := 0
	m := hooks.NewHookMap(func(key string) *hooks.Waterfall[string, int] {
		created++
		return hooks.NewWaterfall[string, int]("Toc", "Includer:"+key)
	})

	_, ok := m.Get("sub")
	assert.False(t, ok)

	first := m.For("sub")
	second := m.For("sub")
	assert.Same(t, first, second)
	assert.Equal(t, 1, created)
	assert.Equal(t, "Includer:sub", first.Name())

	m.For("api")
	assert.Equal(t, []string{"api", "sub"}, m.Keys())
}

type ownerHooks struct {
	Started *hooks.Sync[int]
}

type owner struct {
	hooks hooks.Set[ownerHooks]
}

func (o *owner) Hooks() *ownerHooks {
	return o.hooks.Get(func() *ownerHooks {
		return &ownerHooks{Started: hooks.NewSync[int]("Owner", "Started")}
	})
}

func TestSet_PerInstance(t *testing.T) {
	a, b := &owner{}, &owner{}
	assert.Same(t, a.Hooks(), a.Hooks())
	assert.NotSame(t, a.Hooks(), b.Hooks())

	a.Hooks().Started.Tap("x", func(int) error { return nil })
	assert.True(t, a.Hooks().Started.IsUsed())
	assert.False(t, b.Hooks().Started.IsUsed())
}
