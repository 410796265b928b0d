// Package filex contains filesystem helpers for upload handling.
package filex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrTooLarge is returned by SaveTemp when the input exceeds its limit.
var ErrTooLarge = errors.New("file too large")

// EnsureDir creates dir (relative paths are resolved against the working
// directory) and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// SaveTemp copies r into a new file inside dir and returns its path. The
// file name is random with the given extension. At most limit bytes are
// accepted when limit is positive.
func SaveTemp(dir string, r io.Reader, ext string, limit int64) (string, error) {
	dir, err := EnsureDir(dir)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(dir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	defer f.Close()

	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}

	n, err := io.Copy(f, src)
	if err == nil && limit > 0 && n > limit {
		err = fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, limit)
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}
