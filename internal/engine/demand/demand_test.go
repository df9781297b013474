package demand_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"go.trai.ch/quire/internal/core/domain"
	"go.trai.ch/quire/internal/core/ports/mocks"
	"go.trai.ch/quire/internal/engine/demand"
)

func TestOnDemand_ResolvesOncePerKey(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	d := demand.New("test", func(_ context.Context, key domain.NormalizedPath, _ []domain.NormalizedPath) (string, error) {
		calls.Add(1)
		<-release
		return "value:" + key.String(), nil
	}, nil)

	const n = 16
	var wg sync.WaitGroup
	results := make([]string, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := d.OnDemand(context.Background(), "a.md", nil)
			assert.NoError(t, err)
			results[i] = v
		}()
	}

	require.Eventually(t, func() bool { return d.Pending("a.md") }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "value:a.md", v)
	}
}

func TestOnDemand_ReplaysFailure(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")
	d := demand.New("test", func(context.Context, domain.NormalizedPath, []domain.NormalizedPath) (int, error) {
		calls.Add(1)
		return 0, boom
	}, nil)

	_, err := d.OnDemand(context.Background(), "k", nil)
	require.ErrorIs(t, err, boom)
	_, err = d.OnDemand(context.Background(), "k", nil)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, d.Set("k", 7))
	v, err := d.OnDemand(context.Background(), "k", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestOnDemand_RecoversResolverPanic(t *testing.T) {
	d := demand.New("test", func(context.Context, domain.NormalizedPath, []domain.NormalizedPath) (int, error) {
		panic("broken")
	}, nil)

	_, err := d.OnDemand(context.Background(), "k", nil)
	require.ErrorContains(t, err, "resolver panicked: broken")
	assert.False(t, d.Pending("k"))
}

func TestOnDemand_PassesCallers(t *testing.T) {
	var got []domain.NormalizedPath
	d := demand.New("test", func(_ context.Context, _ domain.NormalizedPath, callers []domain.NormalizedPath) (int, error) {
		got = callers
		return 1, nil
	}, nil)

	_, err := d.OnDemand(context.Background(), "c.md", []domain.NormalizedPath{"a.md", "b.md"})
	require.NoError(t, err)
	assert.Equal(t, []domain.NormalizedPath{"a.md", "b.md"}, got)
}

func TestSet_RejectsOverride(t *testing.T) {
	d := demand.New("test", func(context.Context, domain.NormalizedPath, []domain.NormalizedPath) (int, error) {
		return 1, nil
	}, nil)

	_, err := d.OnDemand(context.Background(), "k", nil)
	require.NoError(t, err)

	err = d.Set("k", 2)
	require.Error(t, err)
	require.ErrorContains(t, err, domain.ErrDemandOverride.Error())

	v, state := d.Get("k")
	require.Equal(t, demand.StateResolved, state)
	assert.Equal(t, 1, v)
}

func TestSet_ResolvesPendingEntry(t *testing.T) {
	release := make(chan struct{})
	d := demand.New("test", func(context.Context, domain.NormalizedPath, []domain.NormalizedPath) (int, error) {
		<-release
		return 1, nil
	}, nil)

	first := make(chan int, 1)
	go func() {
		v, _ := d.OnDemand(context.Background(), "k", nil)
		first <- v
	}()
	require.Eventually(t, func() bool { return d.Pending("k") }, time.Second, time.Millisecond)

	require.NoError(t, d.Set("k", 42))
	waiter, err := d.OnDemand(context.Background(), "k", nil)
	require.NoError(t, err)
	assert.Equal(t, 42, waiter)

	close(release)
	assert.Equal(t, 42, <-first)
}

func TestSet_InsertsUnknownKey(t *testing.T) {
	d := demand.New("test", func(context.Context, domain.NormalizedPath, []domain.NormalizedPath) (int, error) {
		t.Fatal("resolver must not run for a set key")
		return 0, nil
	}, nil)

	require.NoError(t, d.Set("k", 5))
	v, err := d.OnDemand(context.Background(), "k", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestMapOnDemand_RunsPerCaller(t *testing.T) {
	var calls atomic.Int32
	d := demand.New("test", func(context.Context, domain.NormalizedPath, []domain.NormalizedPath) (int, error) {
		calls.Add(1)
		return 10, nil
	}, nil)

	double, err := demand.MapOnDemand(context.Background(), d, "k", nil, func(v int) (int, error) { return v * 2, nil })
	require.NoError(t, err)
	text, err := demand.MapOnDemand(context.Background(), d, "k", nil, func(v int) (string, error) {
		return "n=" + string(rune('0'+v/10)), nil
	})
	require.NoError(t, err)

	assert.Equal(t, 20, double)
	assert.Equal(t, "n=1", text)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDrop_Reresolves(t *testing.T) {
	var calls atomic.Int32
	d := demand.New("test", func(context.Context, domain.NormalizedPath, []domain.NormalizedPath) (int32, error) {
		return calls.Add(1), nil
	}, nil)

	_, _ = d.OnDemand(context.Background(), "docs/a", nil)
	_, _ = d.OnDemand(context.Background(), "other", nil)
	d.DropFunc(func(k domain.NormalizedPath) bool { return k.HasPrefixDir("docs") })

	assert.Equal(t, map[domain.NormalizedPath]int32{"other": 2}, d.Resolved())

	v, err := d.OnDemand(context.Background(), "docs/a", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)
}

func TestOnDemand_WaitHonorsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	d := demand.New("test", func(context.Context, domain.NormalizedPath, []domain.NormalizedPath) (int, error) {
		<-release
		return 1, nil
	}, nil)

	go func() { _, _ = d.OnDemand(context.Background(), "k", nil) }()
	require.Eventually(t, func() bool { return d.Pending("k") }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.OnDemand(ctx, "k", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOnDemand_RecordsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockMetrics(ctrl)
	metrics.EXPECT().IncDemand("vars", "miss").Times(1)
	metrics.EXPECT().IncDemand("vars", "hit").Times(2)

	d := demand.New("vars", func(context.Context, domain.NormalizedPath, []domain.NormalizedPath) (int, error) {
		return 1, nil
	}, metrics)

	for range 3 {
		_, err := d.OnDemand(context.Background(), "k", nil)
		require.NoError(t, err)
	}
}

func TestOnDemand_CallerCancellationIsNotCached(t *testing.T) {
	d := demand.New("test", func(ctx context.Context, _ domain.NormalizedPath, _ []domain.NormalizedPath) (int, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 7, nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v, err := d.OnDemand(ctx, "k", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = d.OnDemand(context.Background(), "k", nil)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestGet_ReportsState(t *testing.T) {
	release := make(chan struct{})
	d := demand.New("test", func(_ context.Context, key domain.NormalizedPath, _ []domain.NormalizedPath) (int, error) {
		if key == "bad" {
			return 0, errors.New("boom")
		}
		<-release
		return 3, nil
	}, nil)

	_, state := d.Get("k")
	assert.Equal(t, demand.StateMissing, state)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = d.OnDemand(context.Background(), "k", nil)
	}()
	require.Eventually(t, func() bool { return d.Pending("k") }, time.Second, time.Millisecond)
	v, state := d.Get("k")
	assert.Equal(t, demand.StatePending, state)
	assert.Zero(t, v)

	close(release)
	<-done
	v, state = d.Get("k")
	assert.Equal(t, demand.StateResolved, state)
	assert.Equal(t, 3, v)

	_, err := d.OnDemand(context.Background(), "bad", nil)
	require.Error(t, err)
	_, state = d.Get("bad")
	assert.Equal(t, demand.StateFailed, state)
	assert.Equal(t, "failed", state.String())
}
