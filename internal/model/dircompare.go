package model

// CompareStatus is the per-entry status produced by the on-demand directory
// comparator. Pending applies only to subdirectories awaiting deep
// resolution by the resolver.
type CompareStatus string

const (
	StatusSame         CompareStatus = "same"
	StatusModified     CompareStatus = "modified"
	StatusOnlyLeft     CompareStatus = "onlyLeft"
	StatusOnlyRight    CompareStatus = "onlyRight"
	StatusTypeMismatch CompareStatus = "typeMismatch"
	StatusPending      CompareStatus = "pending"
)

// DirInfo is populated on a CompareEntry only after deep resolution of a
// subdirectory completes.
type DirInfo struct {
	TotalSize uint64 `json:"totalSize"`
}

// CompareEntry is one direct child produced by the shallow directory
// comparator used for drill-down.
type CompareEntry struct {
	Name          string        `json:"name"`
	Kind          EntryKind     `json:"kind"`
	Status        CompareStatus `json:"status"`
	LeftSize      *uint64       `json:"leftSize"`
	RightSize     *uint64       `json:"rightSize"`
	LeftModified  *int64        `json:"leftModified"`
	RightModified *int64        `json:"rightModified"`
	DirInfo       *DirInfo      `json:"dirInfo"`
}

// ResolvedDirStatus is the event payload the resolver emits for each
// subdirectory whose deep-equal verdict has been determined. LeftPath and
// RightPath are the staleness stamp: the absolute directories whose
// comparison produced this result.
type ResolvedDirStatus struct {
	Name      string        `json:"name"`
	Status    CompareStatus `json:"status"`
	LeftPath  string        `json:"leftPath"`
	RightPath string        `json:"rightPath"`
	TotalSize uint64        `json:"totalSize"`
}
