package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"splitcmd/internal/config"
	"splitcmd/internal/model"
)

func newTestState(t *testing.T) *AppState {
	t.Helper()
	cfg := config.Default
	return NewAppState(&cfg, NewHub())
}

func TestSetRootRejectsMissingDirectory(t *testing.T) {
	a := newTestState(t)
	err := a.SetRoot(model.SideLeft, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestSetRootAndDeclaredRootFor(t *testing.T) {
	a := newTestState(t)
	left := t.TempDir()
	right := t.TempDir()

	require.NoError(t, a.SetRoot(model.SideLeft, left))
	require.NoError(t, a.SetRoot(model.SideRight, right))
	require.NoError(t, os.Mkdir(filepath.Join(left, "sub"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(right, "sub"), 0755))

	root, err := a.declaredRootFor(filepath.Join(left, "sub"))
	require.NoError(t, err)
	require.Equal(t, left, root)

	root, err = a.declaredRootFor(filepath.Join(right, "sub"))
	require.NoError(t, err)
	require.Equal(t, right, root)

	_, err = a.declaredRootFor("/somewhere/else")
	require.Error(t, err)
}

func TestInitBrowseReturnsHomeListing(t *testing.T) {
	a := newTestState(t)
	home, entries, err := a.InitBrowse()
	require.NoError(t, err)
	require.NotEmpty(t, home)
	require.NotNil(t, entries)
}

func TestListDirectoryRejectsRelativePath(t *testing.T) {
	a := newTestState(t)
	_, err := a.ListDirectory("relative/path")
	require.Error(t, err)
}

func TestCompareDirectoryResolvesPendingSubdir(t *testing.T) {
	a := newTestState(t)
	left := t.TempDir()
	right := t.TempDir()

	require.NoError(t, os.Mkdir(filepath.Join(left, "sub"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(right, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(left, "sub", "f.txt"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(right, "sub", "f.txt"), []byte("hi"), 0644))

	id, events := a.hub.register()
	defer a.hub.unregister(id)

	result, err := a.CompareDirectory(left, right)
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	require.Equal(t, model.StatusPending, result.Entries[0].Status)

	select {
	case env := <-events:
		require.Equal(t, model.EventDirStatusResolved, env.Event)
		status, ok := env.Payload.(model.ResolvedDirStatus)
		require.True(t, ok)
		require.Equal(t, "sub", status.Name)
		require.Equal(t, model.StatusSame, status.Status)
	case <-time.After(time.Second):
		t.Fatal("expected a dir-status-resolved event for sub")
	}
}

func TestCopyEntryRequiresDestWithinPinnedRoot(t *testing.T) {
	a := newTestState(t)
	left := t.TempDir()
	require.NoError(t, a.SetRoot(model.SideLeft, left))

	src := filepath.Join(left, "f.txt")
	require.NoError(t, os.WriteFile(src, []byte("hi"), 0644))

	destDir := t.TempDir()
	_, err := a.CopyEntry(src, destDir)
	require.Error(t, err)

	destInRoot := filepath.Join(left, "dest")
	require.NoError(t, os.Mkdir(destInRoot, 0755))
	dest, err := a.CopyEntry(src, destInRoot)
	require.NoError(t, err)
	require.FileExists(t, dest)
}

func TestSaveAndLoadAppStateRoundTrips(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	a := newTestState(t)
	st := model.PersistedState{LeftPath: "/left", RightPath: "/right", LeftSelectedIndex: 2}
	require.NoError(t, a.SaveAppState(st))

	loaded, err := a.LoadAppState()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, st, *loaded)
}

func TestLoadAppStateReturnsNilWhenNeverSaved(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	a := newTestState(t)
	loaded, err := a.LoadAppState()
	require.NoError(t, err)
	require.Nil(t, loaded)
}
