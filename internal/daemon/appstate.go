// Package daemon is the command/event facade: it owns AppState, the
// mutable state shared across every verb, and Server, the HTTP+websocket
// transport that dispatches wire requests into it. Each AppState field is
// guarded by its own lock; there is no global lock.
package daemon

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"splitcmd/internal/apperr"
	"splitcmd/internal/browse"
	"splitcmd/internal/compare"
	"splitcmd/internal/config"
	"splitcmd/internal/dircompare"
	"splitcmd/internal/export"
	"splitcmd/internal/fileops"
	"splitcmd/internal/ignore"
	"splitcmd/internal/logger"
	"splitcmd/internal/model"
	"splitcmd/internal/pathguard"
	"splitcmd/internal/pty"
	"splitcmd/internal/resolver"
	"splitcmd/internal/scan"
	"splitcmd/internal/watch"

	"go.uber.org/zap"
)

// roots holds the two pane roots the comparator and fileops verbs work
// against. Set independently via set_root, never both at once.
type roots struct {
	mu    sync.Mutex
	left  string
	right string
}

func (r *roots) get() (string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.left, r.right
}

func (r *roots) set(side model.Side, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if side == model.SideLeft {
		r.left = path
	} else {
		r.right = path
	}
}

// compareSession is the state of the active (or most recently finished)
// full two-root compare. cancel is shared by reference with the detached
// scan+compare task; starting a new run swaps in a fresh flag, which
// implicitly cancels whatever the old one was still pointing at.
type compareSession struct {
	mu      sync.Mutex
	cancel  *atomic.Bool
	running bool
	mode    model.CompareMode
	diffs   []model.DiffItem
	summary model.CompareSummary
}

// AppState is the single app-state instance the facade dispatches every
// verb against.
type AppState struct {
	cfg   *config.Config
	rules *ignore.Rules
	hub   *Hub

	roots   roots
	compare compareSession

	resolver *resolver.Resolver
	pty      *pty.Supervisor
	watch    *watch.Manager
}

func NewAppState(cfg *config.Config, hub *Hub) *AppState {
	rules := ignore.New(cfg.UserIgnorePatterns)
	a := &AppState{
		cfg:      cfg,
		rules:    rules,
		hub:      hub,
		resolver: resolver.New(cfg.ResolverCacheSize, rules),
		pty:      pty.New(cfg.ShellOverride, cfg.PtyKillGrace),
	}
	a.watch = watch.New(dirChangedSink{hub})
	return a
}

// Shutdown tears down every long-lived subsystem; called once on daemon
// exit.
func (a *AppState) Shutdown() {
	a.compare.mu.Lock()
	if a.compare.cancel != nil {
		a.compare.cancel.Store(true)
	}
	a.compare.mu.Unlock()

	a.resolver.Cancel()
	a.pty.KillAll()
	a.watch.StopAll()
}

// dirChangedSink adapts the hub to watch.ChangeSink.
type dirChangedSink struct{ hub *Hub }

func (s dirChangedSink) OnDirChanged(path string) {
	s.hub.Broadcast(model.EventDirChanged, model.DirChangedPayload{Path: path})
}

// terminalSink adapts the hub to pty.OutputSink.
type terminalSink struct{ hub *Hub }

func (s terminalSink) OnOutput(side model.Side, data []byte) {
	s.hub.Broadcast(model.EventTerminalOutput, model.TerminalOutputPayload{Side: side, Data: string(data)})
}

func (s terminalSink) OnExit(side model.Side) {
	s.hub.Broadcast(model.EventTerminalExit, model.TerminalExitPayload{Side: side})
}

// SetRoot pins one pane's root, supplementing the stable verb set with a
// way for start_compare to learn which two directories to compare.
func (a *AppState) SetRoot(side model.Side, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return apperr.Wrap(apperr.InvalidPath, "cannot resolve "+path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return apperr.Wrap(apperr.NotFound, "no such directory: "+abs, err)
	}
	if !info.IsDir() {
		return apperr.New(apperr.NotADirectory, abs+" is not a directory")
	}
	a.roots.set(side, abs)
	return nil
}

// InitBrowse returns the user's home directory plus its listing.
func (a *AppState) InitBrowse() (string, []model.BrowseEntry, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil, apperr.Wrap(apperr.InternalError, "cannot determine home directory", err)
	}
	entries, err := browse.List(home, a.rules)
	if err != nil {
		return "", nil, err
	}
	return home, entries, nil
}

// ListDirectory is the raw shallow listing verb; it performs no
// confinement check of its own, per the no-declared-root carve-out.
func (a *AppState) ListDirectory(path string) ([]model.BrowseEntry, error) {
	if !filepath.IsAbs(path) {
		return nil, apperr.New(apperr.InvalidPath, "path must be absolute: "+path)
	}
	return browse.List(path, a.rules)
}

// StartCompare launches a detached full two-root compare over the
// currently pinned roots. Starting a new run implicitly cancels any run
// already in flight.
func (a *AppState) StartCompare(mode model.CompareMode) error {
	left, right := a.roots.get()
	if left == "" || right == "" {
		return apperr.New(apperr.InvalidPath, "both roots must be set before starting a compare")
	}

	cancel := &atomic.Bool{}

	a.compare.mu.Lock()
	if a.compare.cancel != nil {
		a.compare.cancel.Store(true)
	}
	a.compare.cancel = cancel
	a.compare.running = true
	a.compare.mode = mode
	a.compare.mu.Unlock()

	go a.runCompare(left, right, mode, cancel)
	return nil
}

func (a *AppState) runCompare(left, right string, mode model.CompareMode, cancel *atomic.Bool) {
	ctx := context.Background()

	var leftResult, rightResult *scan.Result
	var leftErr, rightErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		leftResult, leftErr = scan.Walk(ctx, left, a.rules, cancel, func(n uint64) {
			a.hub.Broadcast(model.EventScanProgress, model.ScanProgressPayload{Side: model.SideLeft, EntriesScanned: n, Phase: model.PhaseScanning})
		})
	}()
	go func() {
		defer wg.Done()
		rightResult, rightErr = scan.Walk(ctx, right, a.rules, cancel, func(n uint64) {
			a.hub.Broadcast(model.EventScanProgress, model.ScanProgressPayload{Side: model.SideRight, EntriesScanned: n, Phase: model.PhaseScanning})
		})
	}()
	wg.Wait()

	if cancel.Load() {
		a.abortCompare()
		return
	}

	if leftResult == nil || rightResult == nil {
		err := leftErr
		if err == nil {
			err = rightErr
		}
		a.hub.Broadcast(model.EventCompareError, model.CompareErrorPayload{Message: err.Error()})
		a.abortCompare()
		return
	}

	a.hub.Broadcast(model.EventScanProgress, model.ScanProgressPayload{Side: model.SideLeft, EntriesScanned: leftResult.Count, Phase: model.PhaseDone})
	a.hub.Broadcast(model.EventScanProgress, model.ScanProgressPayload{Side: model.SideRight, EntriesScanned: rightResult.Count, Phase: model.PhaseDone})

	result, err := compare.Run(ctx, leftResult, rightResult, mode, cancel)
	if cancel.Load() {
		a.abortCompare()
		return
	}
	if err != nil {
		a.hub.Broadcast(model.EventCompareError, model.CompareErrorPayload{Message: err.Error()})
		a.abortCompare()
		return
	}

	a.compare.mu.Lock()
	a.compare.running = false
	a.compare.diffs = result.Diffs
	a.compare.summary = result.Summary
	a.compare.mu.Unlock()

	a.hub.Broadcast(model.EventCompareDone, model.CompareDonePayload{Summary: result.Summary})
	logger.Log.Info("full compare finished", zap.Int("diffs", len(result.Diffs)))
}

func (a *AppState) abortCompare() {
	a.compare.mu.Lock()
	a.compare.running = false
	a.compare.mu.Unlock()
}

// CancelCompare aborts the active full compare, if any.
func (a *AppState) CancelCompare() {
	a.compare.mu.Lock()
	defer a.compare.mu.Unlock()
	if a.compare.cancel != nil {
		a.compare.cancel.Store(true)
	}
}

// GetDiffs returns the result of the most recently completed full
// compare.
func (a *AppState) GetDiffs() ([]model.DiffItem, model.CompareSummary) {
	a.compare.mu.Lock()
	defer a.compare.mu.Unlock()
	return a.compare.diffs, a.compare.summary
}

// CompareDirectory runs the shallow on-demand comparator and, if any
// children came back pending, kicks off a background resolver pass.
func (a *AppState) CompareDirectory(leftPath, rightPath string) (*dircompare.Result, error) {
	result, err := dircompare.Compare(leftPath, rightPath, a.rules)
	if err != nil {
		return nil, err
	}

	var pending []resolver.PendingChild
	for _, e := range result.Entries {
		if e.Status != model.StatusPending {
			continue
		}
		l, r := dircompare.ChildPaths(leftPath, rightPath, e.Name)
		pending = append(pending, resolver.PendingChild{Name: e.Name, Left: l, Right: r})
	}

	if len(pending) > 0 {
		go a.resolver.Run(context.Background(), leftPath, rightPath, pending, model.ModeSmart, func(status model.ResolvedDirStatus) {
			a.hub.Broadcast(model.EventDirStatusResolved, status)
		})
	}

	return result, nil
}

// CancelDirResolve aborts the resolver's in-flight run.
func (a *AppState) CancelDirResolve() {
	a.resolver.Cancel()
}

// ClearDirResolveCache drops every cached subdirectory verdict.
func (a *AppState) ClearDirResolveCache() {
	a.resolver.ClearCache()
}

// declaredRootFor resolves which pinned root confines path, the
// "ancestor the caller provided" that every destination-taking fileops
// verb must check against.
func (a *AppState) declaredRootFor(path string) (string, error) {
	left, right := a.roots.get()
	if left != "" {
		if ok, _ := pathguard.Within(left, path); ok {
			return left, nil
		}
	}
	if right != "" {
		if ok, _ := pathguard.Within(right, path); ok {
			return right, nil
		}
	}
	return "", apperr.New(apperr.InvalidPath, "path is not within either pinned root: "+path)
}

func (a *AppState) CopyEntry(src, destDir string) (string, error) {
	root, err := a.declaredRootFor(destDir)
	if err != nil {
		return "", err
	}
	return fileops.CopyEntry(root, src, destDir)
}

func (a *AppState) CopyEntryOverwrite(src, destDir string) (string, error) {
	root, err := a.declaredRootFor(destDir)
	if err != nil {
		return "", err
	}
	return fileops.CopyEntryOverwrite(root, src, destDir)
}

func (a *AppState) MoveEntry(src, destDir string) (string, error) {
	root, err := a.declaredRootFor(destDir)
	if err != nil {
		return "", err
	}
	return fileops.MoveEntry(root, src, destDir)
}

func (a *AppState) DeleteEntry(target string) error {
	root, err := a.declaredRootFor(target)
	if err != nil {
		return err
	}
	return fileops.DeleteEntry(root, target)
}

func (a *AppState) CreateDirectory(parent, name string) (string, error) {
	root, err := a.declaredRootFor(parent)
	if err != nil {
		return "", err
	}
	return fileops.CreateDirectory(root, parent, name)
}

func (a *AppState) OpenFile(path string) error {
	return fileops.OpenFile(path)
}

func (a *AppState) SpawnTerminal(side model.Side, cwd string, rows, cols uint16) error {
	return a.pty.Spawn(side, cwd, rows, cols, terminalSink{hub: a.hub})
}

func (a *AppState) WriteTerminal(side model.Side, data []byte) error {
	return a.pty.Write(side, data)
}

func (a *AppState) ResizeTerminal(side model.Side, rows, cols uint16) error {
	return a.pty.Resize(side, rows, cols)
}

func (a *AppState) KillTerminal(side model.Side) error {
	return a.pty.Kill(side)
}

func (a *AppState) WatchDirectory(path string) error {
	return a.watch.Watch(path)
}

func (a *AppState) UnwatchDirectory(path string) error {
	return a.watch.Unwatch(path)
}

// ExportReport serializes the most recently completed full compare to
// path, format inferred from its extension.
func (a *AppState) ExportReport(path string) error {
	left, right := a.roots.get()

	a.compare.mu.Lock()
	mode := a.compare.mode
	diffs := a.compare.diffs
	summary := a.compare.summary
	a.compare.mu.Unlock()

	report := export.Build(left, right, mode, summary, diffs, time.Now())
	return export.WriteToFile(report, path, export.FormatFromPath(path))
}

// LoadAppState reads the persisted pane-state blob, returning nil without
// error if none has ever been saved.
func (a *AppState) LoadAppState() (*model.PersistedState, error) {
	path, err := config.StateFilePath()
	if err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "cannot locate state file", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.Wrap(apperr.IoFailed, "cannot read "+path, err)
	}

	var st model.PersistedState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, apperr.Wrap(apperr.InternalError, "corrupt state file "+path, err)
	}
	return &st, nil
}

// SaveAppState writes the pane-state blob atomically, the core treating
// its contents as opaque.
func (a *AppState) SaveAppState(st model.PersistedState) error {
	path, err := config.StateFilePath()
	if err != nil {
		return apperr.Wrap(apperr.InternalError, "cannot locate state file", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.InternalError, "cannot encode state", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return apperr.Wrap(apperr.IoFailed, "cannot write "+tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return apperr.Wrap(apperr.IoFailed, "cannot rename "+tmp+" to "+path, err)
	}
	return nil
}
