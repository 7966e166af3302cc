// Package scan walks a root directory in parallel, producing the flat
// rel-path → metadata map the comparator consumes.
package scan

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"splitcmd/internal/ignore"
	"splitcmd/internal/model"
)

// ScanError records an I/O failure against one entry; it does not abort
// the walk.
type ScanError struct {
	RelPath string
	Message string
}

// Result is the authoritative output of a walk: no per-entry stream is
// exposed, only the finished map.
type Result struct {
	Entries map[string]model.EntryMeta
	Errors  []ScanError
	Count   uint64
}

// progressInterval bounds progress-callback invocation to roughly 10 Hz,
// per the ≤10 Hz contract.
const progressInterval = 100 * time.Millisecond

// ErrCancelled is returned when the cancellation flag was observed set.
var ErrCancelled = &cancelledError{}

type cancelledError struct{}

func (*cancelledError) Error() string { return "scan cancelled" }

// Walk scans root in parallel, honoring rules for exclusion and cancel
// for cooperative cancellation. onProgress is invoked with a monotonic
// running count, rate-limited and safe to call concurrently.
func Walk(ctx context.Context, root string, rules *ignore.Rules, cancel *atomic.Bool, onProgress func(uint64)) (*Result, error) {
	var (
		mu      sync.Mutex
		entries = make(map[string]model.EntryMeta)
		errs    []ScanError
		count   atomic.Uint64
		lastFed atomic.Int64
	)

	emit := func() {
		n := count.Load()
		now := time.Now().UnixNano()
		last := lastFed.Load()
		if now-last < int64(progressInterval) {
			return
		}
		if lastFed.CompareAndSwap(last, now) && onProgress != nil {
			onProgress(n)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism())

	var walkDir func(absDir, relDir string) error
	walkDir = func(absDir, relDir string) error {
		if cancel.Load() {
			return ErrCancelled
		}
		select {
		case <-gctx.Done():
			return gctx.Err()
		default:
		}

		dirEntries, err := os.ReadDir(absDir)
		if err != nil {
			mu.Lock()
			delete(entries, relDir)
			errs = append(errs, ScanError{RelPath: relDir, Message: err.Error()})
			mu.Unlock()
			return nil
		}

		for _, de := range dirEntries {
			name := de.Name()
			rel := name
			if relDir != "" {
				rel = relDir + "/" + name
			}

			if rules != nil && rules.IsIgnored(rel) {
				continue
			}

			absChild := filepath.Join(absDir, name)
			meta, isDir, err := metaOf(absChild, de)
			if err != nil {
				mu.Lock()
				errs = append(errs, ScanError{RelPath: rel, Message: err.Error()})
				mu.Unlock()
				continue
			}

			mu.Lock()
			entries[rel] = meta
			mu.Unlock()
			count.Add(1)
			emit()

			if isDir {
				rel, absChild := rel, absChild
				// With every worker slot taken, g.Go would block this worker
				// on a slot that only another equally blocked worker could
				// free; walk the subdirectory inline instead.
				if !g.TryGo(func() error { return walkDir(absChild, rel) }) {
					if err := walkDir(absChild, rel); err != nil {
						return err
					}
				}
			}
		}

		return nil
	}

	g.Go(func() error {
		return walkDir(root, "")
	})

	err := g.Wait()
	if onProgress != nil {
		onProgress(count.Load())
	}

	result := &Result{Entries: entries, Errors: errs, Count: count.Load()}
	if err != nil {
		return result, ErrCancelled
	}

	return result, nil
}

func parallelism() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 4
	}
	return n
}

func metaOf(absPath string, de os.DirEntry) (model.EntryMeta, bool, error) {
	if de.Type()&os.ModeSymlink != 0 {
		target, err := os.Readlink(absPath)
		if err != nil {
			target = ""
		}
		return model.EntryMeta{
			Kind:          model.KindSymlink,
			SymlinkTarget: &target,
		}, false, nil
	}

	info, err := de.Info()
	if err != nil {
		return model.EntryMeta{}, false, err
	}

	if info.IsDir() {
		return model.EntryMeta{Kind: model.KindDir}, true, nil
	}

	modMs := info.ModTime().UnixMilli()
	return model.EntryMeta{
		Kind:          model.KindFile,
		SizeBytes:     uint64(info.Size()),
		ModifiedEpoch: &modMs,
	}, false, nil
}
