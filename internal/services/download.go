// ABOUTME: Writes downloaded documents to disk
// ABOUTME: Temp file in the target directory, renamed into place, removed on failure

package services

import (
	"fmt"
	"os"
	"path/filepath"
)

// SaveFile writes f into dir under its base name and returns the final path
func SaveFile(dir string, f *File) (path string, err error) {
	if f == nil || f.Name == "" {
		return "", fmt.Errorf("%w: no file to save", ErrDownload)
	}
	name := safeFileName(f.Name)
	if name == "" {
		return "", fmt.Errorf("%w: unusable file name %q", ErrDownload, f.Name)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating download directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(f.Data); err != nil {
		return "", fmt.Errorf("writing %s: %w", f.Name, err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", f.Name, err)
	}

	path = filepath.Join(dir, name)
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("saving %s: %w", f.Name, err)
	}
	return path, nil
}
