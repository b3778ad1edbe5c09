package recommend

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCache struct{ calls atomic.Int32 }

func (c *countingCache) InvalidateRecommendations(context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestWatcherReloadsOnChange(t *testing.T) {
	e := NewEngine(DefaultConfig(), quietLogger())
	path := filepath.Join(t.TempDir(), "room_model.json")
	require.NoError(t, SaveModel(path, testModel(e.Encoder(), 1)))
	require.NoError(t, e.Reload(path))

	cache := &countingCache{}
	w, err := NewWatcher(e, path, cache, quietLogger())
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.NoError(t, SaveModel(path, testModel(e.Encoder(), 2)))

	select {
	case err := <-w.Reloaded():
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	assert.Equal(t, 2, e.Model().Version)
	assert.GreaterOrEqual(t, cache.calls.Load(), int32(1))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherKeepsCacheOnFailedReload(t *testing.T) {
	e := NewEngine(DefaultConfig(), quietLogger())
	path := filepath.Join(t.TempDir(), "room_model.json")
	require.NoError(t, SaveModel(path, testModel(e.Encoder(), 1)))
	require.NoError(t, e.Reload(path))

	cache := &countingCache{}
	w, err := NewWatcher(e, path, cache, quietLogger())
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	select {
	case err := <-w.Reloaded():
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	assert.Equal(t, 1, e.Model().Version)
	assert.Zero(t, cache.calls.Load())
}
