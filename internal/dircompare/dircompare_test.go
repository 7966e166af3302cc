package dircompare

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"splitcmd/internal/ignore"
	"splitcmd/internal/model"
)

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

func TestPendingSubdirectory(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(left, "sub"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(right, "sub"), 0755))

	result, err := Compare(left, right, ignore.New(nil))
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	require.Equal(t, model.StatusPending, result.Entries[0].Status)
}

func TestOnlyLeftFile(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	writeFile(t, filepath.Join(left, "x.txt"), "hello")

	result, err := Compare(left, right, ignore.New(nil))
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	require.Equal(t, model.StatusOnlyLeft, result.Entries[0].Status)
	require.Equal(t, 1, result.Summary.OnlyLeft)
}

func TestSameFileSizeIsSame(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	writeFile(t, filepath.Join(left, "f.txt"), "hello")
	writeFile(t, filepath.Join(right, "f.txt"), "world")

	result, err := Compare(left, right, ignore.New(nil))
	require.NoError(t, err)
	require.Equal(t, model.StatusSame, result.Entries[0].Status)
}

func TestDifferentSizeIsModified(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	writeFile(t, filepath.Join(left, "f.txt"), "hello")
	writeFile(t, filepath.Join(right, "f.txt"), "hello world")

	result, err := Compare(left, right, ignore.New(nil))
	require.NoError(t, err)
	require.Equal(t, model.StatusModified, result.Entries[0].Status)
}

func TestTypeMismatch(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	writeFile(t, filepath.Join(left, "item"), "hello")
	require.NoError(t, os.Mkdir(filepath.Join(right, "item"), 0755))

	result, err := Compare(left, right, ignore.New(nil))
	require.NoError(t, err)
	require.Equal(t, model.StatusTypeMismatch, result.Entries[0].Status)
}

func TestUnreadableEitherSideYieldsError(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()

	_, err := Compare(filepath.Join(left, "missing"), right, ignore.New(nil))
	require.Error(t, err)

	_, err = Compare(left, filepath.Join(right, "missing"), ignore.New(nil))
	require.Error(t, err)
}

func TestDivergentSymlinkTargetsAreModified(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	writeFile(t, filepath.Join(left, "target-a"), "a")
	writeFile(t, filepath.Join(right, "target-b"), "b")
	require.NoError(t, os.Symlink(filepath.Join(left, "target-a"), filepath.Join(left, "link")))
	require.NoError(t, os.Symlink(filepath.Join(right, "target-b"), filepath.Join(right, "link")))

	result, err := Compare(left, right, ignore.New(nil))
	require.NoError(t, err)

	var link model.CompareEntry
	for _, e := range result.Entries {
		if e.Name == "link" {
			link = e
		}
	}
	require.Equal(t, model.StatusModified, link.Status)
}

func TestMatchingSymlinkTargetsAreSame(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	require.NoError(t, os.Symlink("./target", filepath.Join(left, "link")))
	require.NoError(t, os.Symlink("./target", filepath.Join(right, "link")))

	result, err := Compare(left, right, ignore.New(nil))
	require.NoError(t, err)

	var link model.CompareEntry
	for _, e := range result.Entries {
		if e.Name == "link" {
			link = e
		}
	}
	require.Equal(t, model.StatusSame, link.Status)
}
