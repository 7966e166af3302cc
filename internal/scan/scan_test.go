package scan

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"splitcmd/internal/ignore"
	"splitcmd/internal/model"
)

func noCancel() *atomic.Bool {
	var b atomic.Bool
	return &b
}

func TestWalkEmptyDir(t *testing.T) {
	dir := t.TempDir()

	result, err := Walk(context.Background(), dir, ignore.New(nil), noCancel(), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(0), result.Count)
	require.Empty(t, result.Entries)
}

func TestWalkWithFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "subdir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file1.txt"), []byte("hello"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "subdir", "file2.txt"), []byte("world"), 0644))

	result, err := Walk(context.Background(), dir, ignore.New(nil), noCancel(), nil)
	require.NoError(t, err)

	require.Contains(t, result.Entries, "file1.txt")
	require.Contains(t, result.Entries, "subdir/file2.txt")
	require.Contains(t, result.Entries, "subdir")
	require.Equal(t, model.KindFile, result.Entries["file1.txt"].Kind)
	require.EqualValues(t, 5, result.Entries["file1.txt"].SizeBytes)
	require.Equal(t, model.KindDir, result.Entries["subdir"].Kind)
}

func TestWalkIgnoreRules(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".DS_Store"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("data"), 0644))

	result, err := Walk(context.Background(), dir, ignore.New(nil), noCancel(), nil)
	require.NoError(t, err)

	require.NotContains(t, result.Entries, ".DS_Store")
	require.Contains(t, result.Entries, "keep.txt")
}

func TestWalkCancellation(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, string(rune('a'+i))+".txt"), []byte("data"), 0644))
	}

	cancel := noCancel()
	cancel.Store(true)

	_, err := Walk(context.Background(), dir, ignore.New(nil), cancel, nil)
	require.ErrorIs(t, err, ErrCancelled)
}

func TestWalkUnreadableSubdirYieldsOnlyError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks are bypassed when running as root")
	}

	dir := t.TempDir()
	sub := filepath.Join(dir, "locked")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "inner.txt"), []byte("data"), 0644))
	require.NoError(t, os.Chmod(sub, 0000))
	defer os.Chmod(sub, 0755)

	result, err := Walk(context.Background(), dir, ignore.New(nil), noCancel(), nil)
	require.NoError(t, err)

	require.NotContains(t, result.Entries, "locked")
	require.Len(t, result.Errors, 1)
	require.Equal(t, "locked", result.Errors[0].RelPath)
}

func TestWalkPreservesOriginalCase(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0644))

	result, err := Walk(context.Background(), dir, ignore.New(nil), noCancel(), nil)
	require.NoError(t, err)

	require.Contains(t, result.Entries, "README.md")
	require.NotContains(t, result.Entries, "readme.md")
}
