package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type collectingSink struct {
	mu    sync.Mutex
	paths []string
}

func (c *collectingSink) OnDirChanged(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
}

func (c *collectingSink) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func TestWatchNotifiesOnFileCreate(t *testing.T) {
	dir := t.TempDir()
	sink := &collectingSink{}
	m := New(sink)

	require.NoError(t, m.Watch(dir))
	defer m.StopAll()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0644))

	require.Eventually(t, func() bool {
		return len(sink.seen()) > 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestUnwatchIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	m := New(&collectingSink{})

	require.NoError(t, m.Watch(dir))
	require.NoError(t, m.Unwatch(dir))
	require.NoError(t, m.Unwatch(dir))
}

func TestWatchIsNoopWhenAlreadyWatched(t *testing.T) {
	dir := t.TempDir()
	m := New(&collectingSink{})

	require.NoError(t, m.Watch(dir))
	require.NoError(t, m.Watch(dir))
	m.StopAll()
}
