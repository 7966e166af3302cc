// Package watch backs the supplemented watch_directory/unwatch_directory
// verbs: a recursive fsnotify watch per watched root, coalesced into a
// single dir-changed event per affected directory so a busy subtree
// doesn't flood the event stream.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"splitcmd/internal/logger"

	"go.uber.org/zap"
)

// ChangeSink receives one coalesced notification per directory that
// changed.
type ChangeSink interface {
	OnDirChanged(path string)
}

// Manager owns zero or more active recursive watches, one per root the
// caller has asked to watch. A root may be watched at most once;
// Unwatch is idempotent.
type Manager struct {
	mu      sync.Mutex
	watches map[string]*rootWatch
	sink    ChangeSink

	coalesce time.Duration
}

type rootWatch struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

func New(sink ChangeSink) *Manager {
	return &Manager{watches: make(map[string]*rootWatch), sink: sink, coalesce: 150 * time.Millisecond}
}

// Watch starts a recursive fsnotify watch rooted at dir. A no-op if dir
// is already watched.
func (m *Manager) Watch(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if _, ok := m.watches[absDir]; ok {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := addRecursive(fw, absDir); err != nil {
		_ = fw.Close()
		return err
	}

	rw := &rootWatch{fw: fw, done: make(chan struct{})}

	m.mu.Lock()
	m.watches[absDir] = rw
	m.mu.Unlock()

	go m.run(absDir, rw)

	logger.Log.Info("directory watch started", zap.String("dir", absDir))
	return nil
}

// Unwatch stops watching dir. Idempotent.
func (m *Manager) Unwatch(dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	m.mu.Lock()
	rw, ok := m.watches[absDir]
	if ok {
		delete(m.watches, absDir)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}

	close(rw.done)
	return rw.fw.Close()
}

// StopAll tears down every active watch, used on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	roots := make([]string, 0, len(m.watches))
	for root := range m.watches {
		roots = append(roots, root)
	}
	m.mu.Unlock()

	for _, root := range roots {
		_ = m.Unwatch(root)
	}
}

func (m *Manager) run(root string, rw *rootWatch) {
	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
	)

	flush := func(dir string) {
		mu.Lock()
		delete(pending, dir)
		mu.Unlock()
		if m.sink != nil {
			m.sink.OnDirChanged(dir)
		}
	}

	for {
		select {
		case <-rw.done:
			return

		case ev, ok := <-rw.fw.Events:
			if !ok {
				return
			}

			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := rw.fw.Add(ev.Name); err != nil {
						logger.Log.Warn("failed to watch new directory", zap.String("path", ev.Name), zap.Error(err))
					}
				}
			}

			dir := filepath.Dir(ev.Name)

			mu.Lock()
			if timer, exists := pending[dir]; exists {
				timer.Stop()
			}
			pending[dir] = time.AfterFunc(m.coalesce, func() { flush(dir) })
			mu.Unlock()

		case err, ok := <-rw.fw.Errors:
			if !ok {
				return
			}
			logger.Log.Error("directory watch error", zap.Error(err))
		}
	}
}

func addRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
}
