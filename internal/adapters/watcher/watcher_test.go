package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"go.trai.ch/quire/internal/adapters/watcher"
	"go.trai.ch/quire/internal/core/ports"
	"go.trai.ch/quire/internal/core/ports/mocks"
)

func collect(t *testing.T, w *watcher.Watcher, want string) []ports.WatchEvent {
	t.Helper()
	found := make(chan []ports.WatchEvent, 1)
	go func() {
		var seen []ports.WatchEvent
		for ev := range w.Events() {
			seen = append(seen, ev)
			if ev.Path == want {
				found <- seen
				return
			}
		}
		found <- seen
	}()
	select {
	case seen := <-found:
		return seen
	case <-time.After(5 * time.Second):
		t.Fatalf("no event for %s", want)
		return nil
	}
}

func TestWatcher_ReportsChangesOutsideExcludedDirs(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	out := filepath.Join(root, "build")
	require.NoError(t, os.MkdirAll(out, 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o750))

	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any(), gomock.Any()).AnyTimes()

	w, err := watcher.NewWatcher(log)
	require.NoError(t, err)
	w.Exclude(out)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	require.NoError(t, w.Start(ctx, root))

	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("x"), 0o600))
	target := filepath.Join(root, "docs", "index.md")
	require.NoError(t, os.WriteFile(target, []byte("# hi"), 0o600))

	seen := collect(t, w, target)
	for _, ev := range seen {
		assert.NotContains(t, ev.Path, out)
	}
}
