// Package browse implements shallow directory listing for init_browse and
// list_directory: one BrowseEntry per direct child, sorted directories
// first then alphabetically. Sorting here is a convenience for callers;
// the UI is not required to trust the ordering.
package browse

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"splitcmd/internal/apperr"
	"splitcmd/internal/ignore"
	"splitcmd/internal/model"
)

// List returns the direct children of path, filtered by rules.
func List(path string, rules *ignore.Rules) ([]model.BrowseEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.Wrap(apperr.NotFound, "no such directory: "+path, err)
		}
		return nil, apperr.Wrap(apperr.IoFailed, "cannot stat "+path, err)
	}
	if !info.IsDir() {
		return nil, apperr.New(apperr.NotADirectory, path+" is not a directory")
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, apperr.Wrap(apperr.PermissionDenied, "cannot read "+path, err)
		}
		return nil, apperr.Wrap(apperr.IoFailed, "cannot read "+path, err)
	}

	entries := make([]model.BrowseEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if rules != nil && rules.IsIgnored(name) {
			continue
		}

		kind, size, modified, symlinkTarget := metaOf(filepath.Join(path, name), de)
		entries = append(entries, model.BrowseEntry{Name: name, Kind: kind, Size: size, Modified: modified, SymlinkTarget: symlinkTarget})
	}

	sort.Slice(entries, func(i, j int) bool {
		iDir := entries[i].Kind == model.KindDir
		jDir := entries[j].Kind == model.KindDir
		if iDir != jDir {
			return iDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	return entries, nil
}

func metaOf(absPath string, de os.DirEntry) (model.EntryKind, uint64, *int64, *string) {
	if de.Type()&os.ModeSymlink != 0 {
		target, err := os.Readlink(absPath)
		if err != nil {
			target = ""
		}
		return model.KindSymlink, 0, nil, &target
	}

	info, err := de.Info()
	if err != nil {
		return model.KindFile, 0, nil, nil
	}
	if info.IsDir() {
		return model.KindDir, 0, nil, nil
	}

	modMs := info.ModTime().UnixMilli()
	return model.KindFile, uint64(info.Size()), &modMs, nil
}
