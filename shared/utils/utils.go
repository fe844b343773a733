package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// RenameNoClobber renames src to dst unless dst already names a different
// file. A dst that is the same file as src (a case-only rename on a
// case-insensitive filesystem) is allowed.
func RenameNoClobber(src, dst string) error {
	dstInfo, err := os.Lstat(dst)
	switch {
	case err == nil:
		srcInfo, serr := os.Lstat(src)
		if serr != nil {
			return &os.LinkError{Op: "rename", Old: src, New: dst, Err: serr}
		}
		if !os.SameFile(srcInfo, dstInfo) {
			return &os.LinkError{Op: "rename", Old: src, New: dst, Err: fs.ErrExist}
		}
	case !os.IsNotExist(err):
		return err
	}
	return os.Rename(src, dst)
}

// Exists reports whether path names any directory entry, without following
// a final symlink.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place, so readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
