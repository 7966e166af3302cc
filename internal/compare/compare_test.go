package compare

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"splitcmd/internal/model"
	"splitcmd/internal/scan"
)

func epoch(ms int64) *int64 { return &ms }

func fileMeta(size uint64, mtime int64) model.EntryMeta {
	return model.EntryMeta{Kind: model.KindFile, SizeBytes: size, ModifiedEpoch: epoch(mtime)}
}

func dirMeta() model.EntryMeta {
	return model.EntryMeta{Kind: model.KindDir}
}

func makeScan(entries map[string]model.EntryMeta) *scan.Result {
	return &scan.Result{Entries: entries, Count: uint64(len(entries))}
}

func TestIdenticalFilesAreSame(t *testing.T) {
	left := makeScan(map[string]model.EntryMeta{"file.txt": fileMeta(100, 1000)})
	right := makeScan(map[string]model.EntryMeta{"file.txt": fileMeta(100, 1000)})

	result, err := Run(context.Background(), left, right, model.ModeSmart, new(atomic.Bool))
	require.NoError(t, err)
	require.Equal(t, 1, result.Summary.Same)
	require.Equal(t, model.DiffSame, result.Diffs[0].DiffKind)
}

func TestOnlyLeft(t *testing.T) {
	left := makeScan(map[string]model.EntryMeta{"file.txt": fileMeta(100, 1000)})
	right := makeScan(map[string]model.EntryMeta{})

	result, err := Run(context.Background(), left, right, model.ModeSmart, new(atomic.Bool))
	require.NoError(t, err)
	require.Equal(t, 1, result.Summary.OnlyLeft)
	require.Equal(t, model.DiffOnlyLeft, result.Diffs[0].DiffKind)
}

func TestTypeMismatch(t *testing.T) {
	left := makeScan(map[string]model.EntryMeta{"item": fileMeta(100, 1000)})
	right := makeScan(map[string]model.EntryMeta{"item": dirMeta()})

	result, err := Run(context.Background(), left, right, model.ModeSmart, new(atomic.Bool))
	require.NoError(t, err)
	require.Equal(t, 1, result.Summary.TypeMismatch)
}

func TestMetaDiffOnSizeChange(t *testing.T) {
	left := makeScan(map[string]model.EntryMeta{"file.txt": fileMeta(100, 1000)})
	right := makeScan(map[string]model.EntryMeta{"file.txt": fileMeta(200, 1000)})

	result, err := Run(context.Background(), left, right, model.ModeSmart, new(atomic.Bool))
	require.NoError(t, err)
	require.Equal(t, 1, result.Summary.MetaDiff)
}

func TestStructureModeIgnoresMetadata(t *testing.T) {
	left := makeScan(map[string]model.EntryMeta{"file.txt": fileMeta(100, 1000)})
	right := makeScan(map[string]model.EntryMeta{"file.txt": fileMeta(200, 2000)})

	result, err := Run(context.Background(), left, right, model.ModeStructure, new(atomic.Bool))
	require.NoError(t, err)
	require.Equal(t, 1, result.Summary.Same)
}

func TestDirsAlwaysSameInSmartMode(t *testing.T) {
	left := makeScan(map[string]model.EntryMeta{"mydir": dirMeta()})
	right := makeScan(map[string]model.EntryMeta{"mydir": dirMeta()})

	result, err := Run(context.Background(), left, right, model.ModeSmart, new(atomic.Bool))
	require.NoError(t, err)
	require.Equal(t, 1, result.Summary.Same)
}

func TestSummaryCountsBalanceAcrossUnion(t *testing.T) {
	left := makeScan(map[string]model.EntryMeta{
		"same.txt":    fileMeta(100, 1000),
		"left_only":   fileMeta(50, 500),
		"changed.txt": fileMeta(100, 1000),
	})
	right := makeScan(map[string]model.EntryMeta{
		"same.txt":    fileMeta(100, 1000),
		"right_only":  fileMeta(75, 750),
		"changed.txt": fileMeta(200, 2000),
	})

	result, err := Run(context.Background(), left, right, model.ModeSmart, new(atomic.Bool))
	require.NoError(t, err)
	s := result.Summary
	total := s.OnlyLeft + s.OnlyRight + s.TypeMismatch + s.Same + s.MetaDiff + s.Errors
	require.Equal(t, len(result.Diffs), total)
}

func TestSwappingSidesFlipsOnlyLeftRight(t *testing.T) {
	left := makeScan(map[string]model.EntryMeta{"a": fileMeta(1, 1), "shared": fileMeta(2, 2)})
	right := makeScan(map[string]model.EntryMeta{"b": fileMeta(1, 1), "shared": fileMeta(2, 2)})

	forward, err := Run(context.Background(), left, right, model.ModeSmart, new(atomic.Bool))
	require.NoError(t, err)
	backward, err := Run(context.Background(), right, left, model.ModeSmart, new(atomic.Bool))
	require.NoError(t, err)

	require.Equal(t, forward.Summary.OnlyLeft, backward.Summary.OnlyRight)
	require.Equal(t, forward.Summary.OnlyRight, backward.Summary.OnlyLeft)
	require.Equal(t, forward.Summary.Same, backward.Summary.Same)
}
