// Package fileutil provides the file copy operations behind the asset
// directives.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// ErrSymlinkNotSupported indicates symlinks are not supported for this operation.
var ErrSymlinkNotSupported = errors.New("symlinks are not supported")

// CopyFile copies a single file from src to dst.
// It creates parent directories if needed and preserves permissions.
// The write goes through a temp file so a failure never leaves a partial
// destination. Returns ErrSymlinkNotSupported if src is a symlink.
func CopyFile(src, dst string) error {
	// Lstat doesn't follow symlinks.
	srcLstat, err := os.Lstat(src)
	if err != nil {
		return err // Return unwrapped to preserve os.IsNotExist compatibility
	}
	if srcLstat.Mode()&os.ModeSymlink != 0 {
		return fmt.Errorf("%s: %w", src, ErrSymlinkNotSupported)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer srcFile.Close()

	// Get source file info for permissions.
	srcInfo, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	// Create parent directories if needed.
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("create parent directories: %w", err)
	}

	if err := atomic.WriteFile(dst, srcFile); err != nil {
		return fmt.Errorf("write destination: %w", err)
	}

	// Set permissions to match source.
	if err := os.Chmod(dst, srcInfo.Mode()); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}

	return nil
}

// CopyDir recursively copies a directory from src to dst and returns the
// paths of the files it copied, relative to src.
// Returns ErrSymlinkNotSupported if any symlinks are encountered.
func CopyDir(src, dst string) ([]string, error) {
	var copied []string
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Check for symlinks - d.Type() includes symlink info
		if d.Type()&os.ModeSymlink != 0 {
			return fmt.Errorf("%s: %w", path, ErrSymlinkNotSupported)
		}

		// Calculate destination path.
		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("calculate relative path: %w", err)
		}

		if d.IsDir() {
			return os.MkdirAll(filepath.Join(dst, relPath), 0755)
		}

		if err := CopyFile(path, filepath.Join(dst, relPath)); err != nil {
			return err
		}
		copied = append(copied, relPath)
		return nil
	})
	return copied, err
}
