package watcher_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tooban/internal/fsatomic"
	"tooban/internal/pubsub"
	"tooban/internal/watcher"
)

func newTestWatcher(t *testing.T, path string) <-chan pubsub.Event[watcher.Event] {
	t.Helper()
	w, err := watcher.New(watcher.Config{Path: path, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	events := w.Broker().Subscribe(ctx)

	require.NoError(t, w.Start())
	return events
}

func TestWatcher_DebounceMultipleWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auto_reload: true\n"), 0o600))

	events := newTestWatcher(t, path)

	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("seed: %d\n", i)), 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case evt := <-events:
		assert.Equal(t, watcher.ConfigChanged, evt.Payload.Type)
	case <-time.After(300 * time.Millisecond):
		t.Fatal("expected notification but got timeout")
	}

	select {
	case <-events:
		t.Fatal("unexpected second notification")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcher_SeesAtomicReplace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auto_reload: true\n"), 0o600))

	events := newTestWatcher(t, path)

	// Atomic saves replace the file by renaming a temp file over it.
	require.NoError(t, fsatomic.WriteFile(path, []byte("auto_reload: false\n"), fsatomic.Options{Perm: 0o600}))

	select {
	case evt := <-events:
		assert.Equal(t, watcher.ConfigChanged, evt.Payload.Type)
	case <-time.After(300 * time.Millisecond):
		t.Fatal("expected notification for atomic replace")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o600))
	require.NoError(t, os.WriteFile(other, []byte("initial"), 0o600))

	events := newTestWatcher(t, path)

	require.NoError(t, os.WriteFile(other, []byte("changed"), 0o600))

	select {
	case <-events:
		t.Fatal("should not notify for unrelated files")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_Stop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o600))

	w, err := watcher.New(watcher.Config{Path: path, Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	require.NoError(t, w.Start())

	done := make(chan struct{})
	go func() {
		assert.NoError(t, w.Stop())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() timed out")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := watcher.DefaultConfig("/etc/tooban/config.yaml")
	assert.Equal(t, "/etc/tooban/config.yaml", cfg.Path)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce)
}
