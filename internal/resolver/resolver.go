// Package resolver is the background worker that turns the pending
// subdirectories a dircompare.Compare call leaves behind into resolved
// same/modified verdicts: a bounded LRU cache, cooperative cancellation,
// and one dir-status-resolved event per subdirectory as soon as its
// verdict is known.
package resolver

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"splitcmd/internal/ignore"
	"splitcmd/internal/model"
)

// CacheKey identifies one subdirectory pair's deep-equal verdict, scoped
// by compare mode since structure mode ignores file size and smart mode
// does not.
type CacheKey struct {
	Left  string
	Right string
	Mode  model.CompareMode
}

type cacheValue struct {
	status    model.CompareStatus
	totalSize uint64
}

// Resolver owns the bounded LRU cache and the single in-flight run's
// cancellation flag. At most one run is active per Resolver; starting a
// new run cancels the previous one.
type Resolver struct {
	cache *lru.Cache[CacheKey, cacheValue]
	rules *ignore.Rules

	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func New(cacheSize int, rules *ignore.Rules) *Resolver {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, _ := lru.New[CacheKey, cacheValue](cacheSize)
	return &Resolver{cache: cache, rules: rules}
}

// Cancel aborts any in-flight run without emitting further events.
func (r *Resolver) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancelFunc != nil {
		r.cancelFunc()
		r.cancelFunc = nil
	}
}

// ClearCache drops every cached verdict, per clear_dir_resolve_cache.
func (r *Resolver) ClearCache() {
	r.cache.Purge()
}

// PendingChild names one subdirectory pair awaiting resolution.
type PendingChild struct {
	Name  string
	Left  string
	Right string
}

// Run starts a new resolution pass over children, cancelling any run
// already in flight on this Resolver. onResolved is invoked once per
// child, in any order, as soon as its verdict (cache hit or freshly
// walked) is known; it must not block.
func (r *Resolver) Run(ctx context.Context, leftPath, rightPath string, children []PendingChild, mode model.CompareMode, onResolved func(model.ResolvedDirStatus)) {
	r.mu.Lock()
	if r.cancelFunc != nil {
		r.cancelFunc()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancelFunc = cancel
	r.mu.Unlock()

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(resolveParallelism())

	for _, child := range children {
		child := child
		g.Go(func() error {
			key := CacheKey{Left: canonicalOrSelf(child.Left), Right: canonicalOrSelf(child.Right), Mode: mode}

			if cached, ok := r.cache.Get(key); ok {
				emit(onResolved, child.Name, cached.status, leftPath, rightPath, cached.totalSize)
				return nil
			}

			if gctx.Err() != nil {
				return gctx.Err()
			}

			same, totalSize := deepEqual(gctx, child.Left, child.Right, mode, r.rules)
			if gctx.Err() != nil {
				return gctx.Err()
			}

			status := model.StatusModified
			if same {
				status = model.StatusSame
			}

			r.cache.Add(key, cacheValue{status: status, totalSize: totalSize})
			emit(onResolved, child.Name, status, leftPath, rightPath, totalSize)
			return nil
		})
	}

	_ = g.Wait()
}

func emit(onResolved func(model.ResolvedDirStatus), name string, status model.CompareStatus, leftPath, rightPath string, totalSize uint64) {
	if onResolved == nil {
		return
	}
	onResolved(model.ResolvedDirStatus{
		Name:      name,
		Status:    status,
		LeftPath:  leftPath,
		RightPath: rightPath,
		TotalSize: totalSize,
	})
}

// deepEqual walks left and right in lock-step. Once a discrepancy is found
// it stops comparing against the right side and only keeps accumulating
// the left-side total size of every descendant file, matching the
// canonical-side size accounting contract.
func deepEqual(ctx context.Context, left, right string, mode model.CompareMode, rules *ignore.Rules) (bool, uint64) {
	if ctx.Err() != nil {
		return false, 0
	}

	leftChildren, leftErr := readDirShallow(left, rules)
	rightChildren, rightErr := readDirShallow(right, rules)
	if leftErr != nil || rightErr != nil {
		return false, 0
	}

	leftByName := make(map[string]os.DirEntry, len(leftChildren))
	for _, e := range leftChildren {
		leftByName[e.Name()] = e
	}
	rightByName := make(map[string]os.DirEntry, len(rightChildren))
	for _, e := range rightChildren {
		rightByName[e.Name()] = e
	}

	same := len(leftByName) == len(rightByName)
	var totalSize uint64

	for name, lde := range leftByName {
		if ctx.Err() != nil {
			return false, totalSize
		}

		lInfo, lErr := lde.Info()
		isDir := lErr == nil && lInfo.IsDir()

		if !isDir && lErr == nil {
			totalSize += uint64(lInfo.Size())
		}

		if !same {
			if isDir {
				_, subSize := deepEqual(ctx, filepath.Join(left, name), filepath.Join(left, name), mode, rules)
				totalSize += subSize
			}
			continue
		}

		rde, ok := rightByName[name]
		if !ok {
			same = false
			if isDir {
				_, subSize := deepEqual(ctx, filepath.Join(left, name), filepath.Join(left, name), mode, rules)
				totalSize += subSize
			}
			continue
		}

		rInfo, rErr := rde.Info()
		if lErr != nil || rErr != nil {
			same = false
			continue
		}

		lKind := kindOf(lde, lInfo)
		rKind := kindOf(rde, rInfo)
		if lKind != rKind {
			same = false
			continue
		}

		if lKind == model.KindDir {
			subSame, subSize := deepEqual(ctx, filepath.Join(left, name), filepath.Join(right, name), mode, rules)
			totalSize += subSize
			if !subSame {
				same = false
			}
			continue
		}

		if lKind == model.KindSymlink {
			lTarget, lErr := os.Readlink(filepath.Join(left, name))
			rTarget, rErr := os.Readlink(filepath.Join(right, name))
			if lErr != nil || rErr != nil || lTarget != rTarget {
				same = false
			}
			continue
		}

		if mode == model.ModeSmart && lInfo.Size() != rInfo.Size() {
			same = false
		}
	}

	return same, totalSize
}

func kindOf(de os.DirEntry, info os.FileInfo) model.EntryKind {
	if de.Type()&os.ModeSymlink != 0 {
		return model.KindSymlink
	}
	if info.IsDir() {
		return model.KindDir
	}
	return model.KindFile
}

func readDirShallow(dir string, rules *ignore.Rules) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		return entries, nil
	}
	filtered := make([]os.DirEntry, 0, len(entries))
	for _, e := range entries {
		if !rules.IsIgnored(e.Name()) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

func canonicalOrSelf(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs
	}
	return resolved
}

func resolveParallelism() int {
	return 8
}
