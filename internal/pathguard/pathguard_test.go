package pathguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"splitcmd/internal/apperr"
)

func TestWithinValidChild(t *testing.T) {
	dir := t.TempDir()
	child := filepath.Join(dir, "child.txt")
	require.NoError(t, os.WriteFile(child, []byte("x"), 0644))

	ok, err := Within(dir, child)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestWithinRootItself(t *testing.T) {
	dir := t.TempDir()

	ok, err := Within(dir, dir)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestWithinEscape(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()

	ok, err := Within(dir, outside)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRequireEscapeReturnsInvalidPath(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()

	err := Require(dir, outside)
	require.Error(t, err)
	require.Equal(t, apperr.InvalidPath, apperr.KindOf(err))
}

func TestCheckRelPathClean(t *testing.T) {
	require.NoError(t, CheckRelPath("src/main.go"))
	require.NoError(t, CheckRelPath("deep/nested/path/file.txt"))
}

func TestCheckRelPathTraversal(t *testing.T) {
	require.Error(t, CheckRelPath("../etc/passwd"))
	require.Error(t, CheckRelPath("foo/../../bar"))
}
