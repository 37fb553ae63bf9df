// Package filex contains filesystem helpers for the CLI.
package filex

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrNotRegularFile = errors.New("not a regular file")

// EnsureParentDir creates the directory that will hold path, so a database
// file can be opened there.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// RegularFileSize returns the size of the regular file at path.
func RegularFileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !fi.Mode().IsRegular() {
		return 0, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}
	return fi.Size(), nil
}
