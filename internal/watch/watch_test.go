package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, w *Watcher, within time.Duration) (Event, bool) {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev, true
	case <-time.After(within):
		return Event{}, false
	}
}

func startWatcher(t *testing.T, text string, debounce time.Duration) (*Watcher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "draft.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	w, err := New(path, debounce)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	t.Cleanup(func() { w.Stop() })
	return w, path
}

func TestStart_EmitsCurrentContents(t *testing.T) {
	w, path := startWatcher(t, "hello", 20*time.Millisecond)

	ev, ok := next(t, w, time.Second)
	require.True(t, ok)
	assert.Equal(t, "hello", ev.Text)
	assert.Equal(t, w.Path(), ev.Path)
	assert.Equal(t, filepath.Base(path), filepath.Base(ev.Path))
}

func TestWrite_EmitsNewContents(t *testing.T) {
	w, path := startWatcher(t, "hello", 20*time.Millisecond)
	_, _ = next(t, w, time.Second)

	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	ev, ok := next(t, w, 2*time.Second)
	require.True(t, ok, "expected an event after a write")
	assert.Equal(t, "hello world", ev.Text)
}

func TestWrite_BurstIsDebounced(t *testing.T) {
	w, path := startWatcher(t, "a", 200*time.Millisecond)
	_, _ = next(t, w, time.Second)

	for _, s := range []string{"ab", "abc", "abcd"} {
		require.NoError(t, os.WriteFile(path, []byte(s), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	ev, ok := next(t, w, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, "abcd", ev.Text)

	_, ok = next(t, w, 400*time.Millisecond)
	assert.False(t, ok, "a burst of writes should produce one event")
}

func TestWrite_SameContentsSuppressed(t *testing.T) {
	w, path := startWatcher(t, "same", 20*time.Millisecond)
	_, _ = next(t, w, time.Second)

	require.NoError(t, os.WriteFile(path, []byte("same"), 0o644))

	_, ok := next(t, w, 300*time.Millisecond)
	assert.False(t, ok)
}

func TestIgnoresSiblingFiles(t *testing.T) {
	w, path := startWatcher(t, "x", 20*time.Millisecond)
	_, _ = next(t, w, time.Second)

	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("y"), 0o644))

	_, ok := next(t, w, 300*time.Millisecond)
	assert.False(t, ok)
}

func TestStart_Errors(t *testing.T) {
	dir := t.TempDir()

	w, err := New(filepath.Join(dir, "missing.txt"), time.Millisecond)
	require.NoError(t, err)
	assert.Error(t, w.Start())
	require.NoError(t, w.Stop())

	w, err = New(dir, time.Millisecond)
	require.NoError(t, err)
	assert.ErrorContains(t, w.Start(), "is a directory")
	require.NoError(t, w.Stop())
}

func TestStop_Idempotent(t *testing.T) {
	w, _ := startWatcher(t, "x", time.Millisecond)
	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())

	_, open := <-w.Events()
	for open {
		_, open = <-w.Events()
	}
}
