package scan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want []WatchEvent
	}{
		{fsnotify.Create, []WatchEvent{Create("/d/a.png")}},
		{fsnotify.Write, []WatchEvent{Write("/d/a.png")}},
		{fsnotify.Remove, []WatchEvent{Remove("/d/a.png")}},
		{fsnotify.Rename, []WatchEvent{{Kind: EventRename, Path: "/d/a.png"}}},
		{fsnotify.Chmod, []WatchEvent{Chmod("/d/a.png")}},
		{fsnotify.Create | fsnotify.Write, []WatchEvent{Create("/d/a.png"), Write("/d/a.png")}},
	}
	for _, tc := range tests {
		got := translate(fsnotify.Event{Name: "/d/a.png", Op: tc.op})
		assert.Equal(t, tc.want, got, "op %s", tc.op)
	}
}

func TestCoalesce(t *testing.T) {
	var pending []WatchEvent
	pending = coalesce(pending, Write("/d/a.png"))
	pending = coalesce(pending, Write("/d/a.png"))
	pending = coalesce(pending, Write("/d/b.png"))
	pending = coalesce(pending, Write("/d/a.png"))

	assert.Equal(t, []WatchEvent{
		Write("/d/a.png"),
		Write("/d/b.png"),
		Write("/d/a.png"),
	}, pending)
}

func TestPairRenames(t *testing.T) {
	half := func(p string) WatchEvent { return WatchEvent{Kind: EventRename, Path: p} }

	t.Run("paired with next create", func(t *testing.T) {
		got := pairRenames([]WatchEvent{half("/d/a.png"), Write("/d/c.png"), Create("/d/b.png")})
		assert.Equal(t, []WatchEvent{Rename("/d/a.png", "/d/b.png"), Write("/d/c.png")}, got)
	})
	t.Run("unpaired becomes remove", func(t *testing.T) {
		got := pairRenames([]WatchEvent{Create("/d/x.png"), half("/d/a.png")})
		assert.Equal(t, []WatchEvent{Create("/d/x.png"), Remove("/d/a.png")}, got)
	})
	t.Run("each create pairs once", func(t *testing.T) {
		got := pairRenames([]WatchEvent{half("/d/a.png"), half("/d/b.png"), Create("/d/c.png")})
		assert.Equal(t, []WatchEvent{Rename("/d/a.png", "/d/c.png"), Remove("/d/b.png")}, got)
	})
	t.Run("complete renames pass through", func(t *testing.T) {
		got := pairRenames([]WatchEvent{Rename("/d/a.png", "/d/b.png")})
		assert.Equal(t, []WatchEvent{Rename("/d/a.png", "/d/b.png")}, got)
	})
}

func TestFSWatcherDeliversBatch(t *testing.T) {
	dir := t.TempDir()
	w, err := NewFSWatcher(dir, 50*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))

	select {
	case batch, ok := <-w.Events():
		require.True(t, ok)
		require.NotEmpty(t, batch)
		assert.Equal(t, path, batch[0].Path)
		assert.Equal(t, EventCreate, batch[0].Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered")
	}
}

func TestFSWatcherCloseEndsEvents(t *testing.T) {
	w, err := NewFSWatcher(t.TempDir(), 50*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestNewFSWatcherMissingDir(t *testing.T) {
	_, err := NewFSWatcher(filepath.Join(t.TempDir(), "missing"), 0, nil)
	assert.Error(t, err)
}

func TestWatcherFunc(t *testing.T) {
	watch := Watcher(50*time.Millisecond, nil)

	src, err := watch(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
	assert.Nil(t, src)

	src, err = watch(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, src.Close())
}
