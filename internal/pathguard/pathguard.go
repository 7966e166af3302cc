// Package pathguard is the confinement check every filesystem-touching
// verb runs a destination through before acting.
package pathguard

import (
	"path/filepath"
	"strings"

	"splitcmd/internal/apperr"
)

// Within reports whether target, once resolved, is root itself or a
// descendant of root. Both sides are canonicalized (symlinks resolved,
// "." and ".." collapsed) before the comparison, matching the original's
// canonicalize-then-starts_with check.
func Within(root, target string) (bool, error) {
	canonicalRoot, err := canonicalize(root)
	if err != nil {
		return false, apperr.Wrap(apperr.InvalidPath, "failed to resolve root "+root, err)
	}

	canonicalTarget, err := canonicalize(target)
	if err != nil {
		return false, apperr.Wrap(apperr.InvalidPath, "failed to resolve path "+target, err)
	}

	if canonicalTarget == canonicalRoot {
		return true, nil
	}

	rel, err := filepath.Rel(canonicalRoot, canonicalTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false, nil
	}

	return true, nil
}

// Require is Within plus an InvalidPath error when the check fails or the
// path escapes, so callers can return directly.
func Require(root, target string) error {
	ok, err := Within(root, target)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.InvalidPath, "path "+target+" escapes root "+root)
	}
	return nil
}

// CheckRelPath rejects ".." traversal components in a slash-separated
// relative path before it is ever joined onto a root, mirroring
// check_relative_path's fast pre-check.
func CheckRelPath(relPath string) error {
	for _, component := range strings.Split(relPath, "/") {
		if component == ".." {
			return apperr.New(apperr.InvalidPath, "path traversal attempt in "+relPath)
		}
	}
	return nil
}

func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}
