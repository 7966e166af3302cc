// Package dircompare implements the on-demand shallow directory
// comparator used for drill-down: a single-level comparison of two
// directories' direct children, leaving subdirectory pairs pending for
// the resolver.
package dircompare

import (
	"path/filepath"
	"sort"
	"strings"

	"splitcmd/internal/browse"
	"splitcmd/internal/ignore"
	"splitcmd/internal/model"
)

type Result struct {
	Entries   []model.CompareEntry `json:"entries"`
	LeftPath  string               `json:"leftPath"`
	RightPath string               `json:"rightPath"`
	Summary   model.CompareSummary `json:"summary"`
}

// Compare lists leftDir and rightDir and classifies each direct child by
// name. File size is always compared regardless of mode, matching the
// observed behavior of the source this comparator generalizes; directory
// pairs are always left pending here, never recursed into — the caller is
// responsible for kicking off a resolver run when pending entries exist.
func Compare(leftDir, rightDir string, rules *ignore.Rules) (*Result, error) {
	leftEntries, leftErr := browse.List(leftDir, rules)
	rightEntries, rightErr := browse.List(rightDir, rules)
	if leftErr != nil || rightErr != nil {
		if leftErr != nil {
			return nil, leftErr
		}
		return nil, rightErr
	}

	leftByName := indexByName(leftEntries)
	rightByName := indexByName(rightEntries)

	keys := make(map[string]struct{}, len(leftByName)+len(rightByName))
	for name := range leftByName {
		keys[name] = struct{}{}
	}
	for name := range rightByName {
		keys[name] = struct{}{}
	}
	names := make([]string, 0, len(keys))
	for name := range keys {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]model.CompareEntry, 0, len(names))
	summary := model.CompareSummary{TotalLeft: len(leftEntries), TotalRight: len(rightEntries)}

	for _, name := range names {
		l, hasLeft := leftByName[name]
		r, hasRight := rightByName[name]

		var entry model.CompareEntry
		switch {
		case hasLeft && !hasRight:
			summary.OnlyLeft++
			entry = model.CompareEntry{Name: l.Name, Kind: l.Kind, Status: model.StatusOnlyLeft, LeftSize: sizePtr(l), LeftModified: l.Modified}
		case !hasLeft && hasRight:
			summary.OnlyRight++
			entry = model.CompareEntry{Name: r.Name, Kind: r.Kind, Status: model.StatusOnlyRight, RightSize: sizePtr(r), RightModified: r.Modified}
		default:
			entry = classifyChild(l, r, &summary)
		}

		entries = append(entries, entry)
	}

	sortDirsFirst(entries)

	return &Result{Entries: entries, LeftPath: leftDir, RightPath: rightDir, Summary: summary}, nil
}

func classifyChild(l, r model.BrowseEntry, summary *model.CompareSummary) model.CompareEntry {
	if l.Kind != r.Kind {
		summary.TypeMismatch++
		return model.CompareEntry{
			Name: l.Name, Kind: l.Kind, Status: model.StatusTypeMismatch,
			LeftSize: sizePtr(l), RightSize: sizePtr(r), LeftModified: l.Modified, RightModified: r.Modified,
		}
	}

	if l.Kind == model.KindDir {
		return model.CompareEntry{
			Name: l.Name, Kind: model.KindDir, Status: model.StatusPending,
			LeftModified: l.Modified, RightModified: r.Modified,
		}
	}

	same := l.Size == r.Size
	if l.Kind == model.KindSymlink {
		same = targetEqual(l.SymlinkTarget, r.SymlinkTarget)
	}

	status := model.StatusSame
	if same {
		summary.Same++
	} else {
		status = model.StatusModified
		summary.MetaDiff++
	}

	return model.CompareEntry{
		Name: l.Name, Kind: l.Kind, Status: status,
		LeftSize: sizePtr(l), RightSize: sizePtr(r), LeftModified: l.Modified, RightModified: r.Modified,
	}
}

func targetEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sizePtr(e model.BrowseEntry) *uint64 {
	s := e.Size
	return &s
}

func indexByName(entries []model.BrowseEntry) map[string]model.BrowseEntry {
	m := make(map[string]model.BrowseEntry, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return m
}

func sortDirsFirst(entries []model.CompareEntry) {
	sort.Slice(entries, func(i, j int) bool {
		iDir := entries[i].Kind == model.KindDir
		jDir := entries[j].Kind == model.KindDir
		if iDir != jDir {
			return iDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
}

// ChildPaths returns the absolute left/right paths for a pending
// subdirectory entry, the pair the resolver is asked to deep-compare.
func ChildPaths(leftDir, rightDir, name string) (string, string) {
	return filepath.Join(leftDir, name), filepath.Join(rightDir, name)
}
