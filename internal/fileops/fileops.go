// Package fileops implements the sync verbs a two-pane file manager needs
// against a single local tree: copy (with and without overwrite), move,
// delete, mkdir, and handing a path off to the OS viewer. Every verb that
// accepts a destination root checks pathguard.Require before touching the
// filesystem.
package fileops

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"splitcmd/internal/apperr"
	"splitcmd/internal/pathguard"
)

// CopyEntry copies src (file or directory, recursively) into
// destDir/<basename(src)>. Fails with AlreadyExists if the destination is
// already present.
func CopyEntry(declaredRoot, src, destDir string) (string, error) {
	dest := filepath.Join(destDir, filepath.Base(src))
	if err := pathguard.Require(declaredRoot, destDir); err != nil {
		return "", err
	}

	if _, err := os.Lstat(dest); err == nil {
		return "", apperr.New(apperr.AlreadyExists, "destination already exists: "+dest)
	}

	if err := copyRecursive(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// CopyEntryOverwrite removes any existing destination (recursively, if a
// directory) before copying.
func CopyEntryOverwrite(declaredRoot, src, destDir string) (string, error) {
	if err := pathguard.Require(declaredRoot, destDir); err != nil {
		return "", err
	}

	dest := filepath.Join(destDir, filepath.Base(src))
	if _, err := os.Lstat(dest); err == nil {
		if err := os.RemoveAll(dest); err != nil {
			return "", apperr.Wrap(apperr.IoFailed, "cannot remove existing "+dest, err)
		}
	}

	if err := copyRecursive(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// MoveEntry renames src into destDir/<basename(src)> when possible
// (same filesystem), falling back to copy-then-delete across filesystem
// boundaries. Fails with AlreadyExists if the destination is present.
func MoveEntry(declaredRoot, src, destDir string) (string, error) {
	if err := pathguard.Require(declaredRoot, destDir); err != nil {
		return "", err
	}

	dest := filepath.Join(destDir, filepath.Base(src))
	if _, err := os.Lstat(dest); err == nil {
		return "", apperr.New(apperr.AlreadyExists, "destination already exists: "+dest)
	}

	if err := os.Rename(src, dest); err == nil {
		return dest, nil
	}

	if err := copyRecursive(src, dest); err != nil {
		return "", err
	}
	if err := os.RemoveAll(src); err != nil {
		return "", apperr.Wrap(apperr.IoFailed, "source removal failed after copy: "+src, err)
	}
	return dest, nil
}

// DeleteEntry recursively removes target.
func DeleteEntry(declaredRoot, target string) error {
	if err := pathguard.Require(declaredRoot, target); err != nil {
		if _, statErr := os.Lstat(target); os.IsNotExist(statErr) {
			return apperr.Wrap(apperr.NotFound, "no such file or directory: "+target, statErr)
		}
		return err
	}

	if _, err := os.Lstat(target); err != nil {
		if os.IsNotExist(err) {
			return apperr.Wrap(apperr.NotFound, "no such file or directory: "+target, err)
		}
		return apperr.Wrap(apperr.IoFailed, "cannot stat "+target, err)
	}

	if err := os.RemoveAll(target); err != nil {
		return apperr.Wrap(apperr.IoFailed, "delete failed for "+target, err)
	}
	return nil
}

// CreateDirectory creates parent/name, rejecting names that carry a
// separator, ".." traversal, or a NUL byte.
func CreateDirectory(declaredRoot, parent, name string) (string, error) {
	if err := pathguard.Require(declaredRoot, parent); err != nil {
		return "", err
	}
	if err := validateEntryName(name); err != nil {
		return "", err
	}

	newDir := filepath.Join(parent, name)
	if _, err := os.Lstat(newDir); err == nil {
		return "", apperr.New(apperr.AlreadyExists, "already exists: "+newDir)
	}

	if err := os.Mkdir(newDir, 0755); err != nil {
		return "", apperr.Wrap(apperr.IoFailed, "cannot create directory "+newDir, err)
	}
	return newDir, nil
}

// OpenFile hands path off to the OS default viewer without waiting on the
// child process's lifetime.
func OpenFile(path string) error {
	cmd, args := viewerCommand(path)
	c := exec.Command(cmd, args...)
	if err := c.Start(); err != nil {
		return apperr.Wrap(apperr.LaunchFailed, "cannot open "+path, err)
	}
	go func() { _ = c.Wait() }()
	return nil
}

func viewerCommand(path string) (string, []string) {
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}

func validateEntryName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\x00") || name == ".." {
		return apperr.New(apperr.InvalidPath, fmt.Sprintf("invalid entry name %q", name))
	}
	return nil
}

func copyRecursive(src, dest string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return apperr.Wrap(apperr.IoFailed, "cannot stat "+src, err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(src)
		if err != nil {
			return apperr.Wrap(apperr.IoFailed, "cannot read symlink "+src, err)
		}
		if err := os.Symlink(target, dest); err != nil {
			return apperr.Wrap(apperr.IoFailed, "cannot create symlink "+dest, err)
		}
		return nil
	}

	if info.IsDir() {
		return copyDirRecursive(src, dest)
	}
	return copyFile(src, dest, info.Mode())
}

func copyDirRecursive(src, dest string) error {
	if err := os.Mkdir(dest, 0755); err != nil {
		return apperr.Wrap(apperr.IoFailed, "cannot create "+dest, err)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return apperr.Wrap(apperr.IoFailed, "cannot read "+src, err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())
		if err := copyRecursive(srcPath, destPath); err != nil {
			return err
		}
	}
	return nil
}

// copyFile writes through a temp file in the destination directory then
// renames into place, so a reader never observes a partially-written
// destination file.
func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return apperr.Wrap(apperr.IoFailed, "cannot open "+src, err)
	}
	defer in.Close()

	tmp := dest + ".splitcmd.tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return apperr.Wrap(apperr.IoFailed, "cannot create "+tmp, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return apperr.Wrap(apperr.IoFailed, "copy failed for "+src, err)
	}

	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return apperr.Wrap(apperr.IoFailed, "cannot close "+tmp, err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return apperr.Wrap(apperr.IoFailed, "cannot rename "+tmp+" to "+dest, err)
	}

	return nil
}
