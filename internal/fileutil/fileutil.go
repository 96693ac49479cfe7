package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
)

// CopyFile streams src to dst with default permissions (0o644).
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// CopyTree recursively copies the directory tree at src to dst. dst must not
// already exist. Only directories and regular files are copied; other entry
// types are skipped.
func CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("copy tree: %s is not a directory", src)
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("copy tree: %s already exists", dst)
	}

	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case entry.IsDir():
			return os.MkdirAll(target, 0o755)
		case entry.Type().IsRegular():
			return CopyFile(path, target)
		default:
			return nil
		}
	})
}

// MoveFile moves src to dst with a single rename when possible, falling back
// to copy-and-remove across filesystems. Returns the number of bytes moved.
func MoveFile(src, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, err
	}

	err = os.Rename(src, dst)
	if err == nil {
		return info.Size(), nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return 0, err
	}

	if err := CopyFile(src, dst); err != nil {
		return 0, err
	}
	if err := os.Remove(src); err != nil {
		_ = os.Remove(dst)
		return 0, fmt.Errorf("remove source after cross-device copy: %w", err)
	}
	return info.Size(), nil
}
