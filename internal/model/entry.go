package model

// EntryKind classifies a filesystem entry. Symlinks are never dereferenced.
type EntryKind string

const (
	KindFile    EntryKind = "file"
	KindDir     EntryKind = "dir"
	KindSymlink EntryKind = "symlink"
)

// EntryMeta describes a single filesystem entry as captured by the scanner
// or a shallow directory listing. SymlinkTarget is non-nil iff Kind is
// KindSymlink (empty when the link could not be read).
type EntryMeta struct {
	Kind          EntryKind `json:"kind"`
	SizeBytes     uint64    `json:"sizeBytes"`
	ModifiedEpoch *int64    `json:"modifiedEpochMs"`
	SymlinkTarget *string   `json:"symlinkTarget"`
}

// BrowseEntry is one direct child of a directory, as returned to the UI by
// init_browse/list_directory. browse.List returns them directories first,
// then by case-insensitive name; the UI applies its own sort order.
type BrowseEntry struct {
	Name          string    `json:"name"`
	Kind          EntryKind `json:"kind"`
	Size          uint64    `json:"size"`
	Modified      *int64    `json:"modified"`
	SymlinkTarget *string   `json:"symlinkTarget"`
}
