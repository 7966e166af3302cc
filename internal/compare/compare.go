// Package compare implements the full two-root comparator: given two
// scan.Result maps it produces a classified diff list and summary
// tallies, deterministic for a given pair of inputs and mode.
package compare

import (
	"context"
	"sort"
	"sync/atomic"

	"splitcmd/internal/model"
	"splitcmd/internal/scan"
)

type Result struct {
	Diffs   []model.DiffItem
	Summary model.CompareSummary
}

// Run classifies the union of left and right's rel-paths under mode,
// honoring cancel at each key. Deterministic: identical inputs and mode
// always produce an identical diff list and summary.
func Run(ctx context.Context, left, right *scan.Result, mode model.CompareMode, cancel *atomic.Bool) (*Result, error) {
	summary := model.CompareSummary{
		TotalLeft:  len(left.Entries),
		TotalRight: len(right.Entries),
	}

	keys := unionKeys(left.Entries, right.Entries)
	diffs := make([]model.DiffItem, 0, len(keys))

	for _, key := range keys {
		if cancel.Load() {
			return nil, scan.ErrCancelled
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		l, hasLeft := left.Entries[key]
		r, hasRight := right.Entries[key]

		var item model.DiffItem
		switch {
		case hasLeft && !hasRight:
			summary.OnlyLeft++
			item = model.DiffItem{RelPath: key, DiffKind: model.DiffOnlyLeft, Left: &l}
		case !hasLeft && hasRight:
			summary.OnlyRight++
			item = model.DiffItem{RelPath: key, DiffKind: model.DiffOnlyRight, Right: &r}
		default:
			item = classifyPair(key, &l, &r, mode, &summary)
		}

		diffs = append(diffs, item)
	}

	for _, e := range left.Errors {
		summary.Errors++
		msg := e.Message
		diffs = append(diffs, model.DiffItem{RelPath: e.RelPath, DiffKind: model.DiffError, ErrorMessage: &msg})
	}
	for _, e := range right.Errors {
		summary.Errors++
		msg := e.Message
		diffs = append(diffs, model.DiffItem{RelPath: e.RelPath, DiffKind: model.DiffError, ErrorMessage: &msg})
	}

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].RelPath < diffs[j].RelPath })

	return &Result{Diffs: diffs, Summary: summary}, nil
}

func classifyPair(relPath string, left, right *model.EntryMeta, mode model.CompareMode, summary *model.CompareSummary) model.DiffItem {
	if left.Kind != right.Kind {
		summary.TypeMismatch++
		return model.DiffItem{RelPath: relPath, DiffKind: model.DiffTypeMismatch, Left: left, Right: right}
	}

	if mode == model.ModeStructure {
		summary.Same++
		return model.DiffItem{RelPath: relPath, DiffKind: model.DiffSame, Left: left, Right: right}
	}

	if left.Kind == model.KindDir {
		summary.Same++
		return model.DiffItem{RelPath: relPath, DiffKind: model.DiffSame, Left: left, Right: right}
	}

	same := left.SizeBytes == right.SizeBytes && epochEqual(left.ModifiedEpoch, right.ModifiedEpoch)
	if left.Kind == model.KindSymlink {
		same = same && targetEqual(left.SymlinkTarget, right.SymlinkTarget)
	}

	if same {
		summary.Same++
		return model.DiffItem{RelPath: relPath, DiffKind: model.DiffSame, Left: left, Right: right}
	}

	summary.MetaDiff++
	return model.DiffItem{RelPath: relPath, DiffKind: model.DiffMetaDiff, Left: left, Right: right}
}

func epochEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func targetEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func unionKeys(left, right map[string]model.EntryMeta) []string {
	seen := make(map[string]struct{}, len(left)+len(right))
	keys := make([]string, 0, len(left)+len(right))
	for k := range left {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for k := range right {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
