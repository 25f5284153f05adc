// Package store centralizes the filesystem writes made under TOOLLOOP_HOME and for exports.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	pathLocksMu sync.Mutex
	pathLocks   = map[string]*sync.Mutex{}
)

// ReadFile reads a file and returns it as bytes.
func ReadFile(path string) ([]byte, error) {
	cleanPath, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(cleanPath)
}

// WriteFile atomically replaces a file's contents, creating parent directories.
func WriteFile(path string, data []byte) error {
	cleanPath, err := cleanPath(path)
	if err != nil {
		return err
	}

	lock := lockForPath(cleanPath)
	lock.Lock()
	defer lock.Unlock()
	return writeLocked(cleanPath, data)
}

// WriteFileIfMissing writes data only when nothing exists at path. It reports whether it wrote.
func WriteFileIfMissing(path string, data []byte) (bool, error) {
	cleanPath, err := cleanPath(path)
	if err != nil {
		return false, err
	}

	lock := lockForPath(cleanPath)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(cleanPath); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %q: %w", cleanPath, err)
	}
	if err := writeLocked(cleanPath, data); err != nil {
		return false, err
	}
	return true, nil
}

func writeLocked(cleanPath string, data []byte) error {
	dir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(cleanPath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", cleanPath, err)
	}
	tempPath := tempFile.Name()
	defer func() {
		os.Remove(tempPath)
	}()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("write temp file for %q: %w", cleanPath, err)
	}
	if err := tempFile.Chmod(0o644); err != nil {
		tempFile.Close()
		return fmt.Errorf("chmod temp file for %q: %w", cleanPath, err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file for %q: %w", cleanPath, err)
	}
	if err := os.Rename(tempPath, cleanPath); err != nil {
		return fmt.Errorf("replace file %q: %w", cleanPath, err)
	}
	return nil
}

func lockForPath(path string) *sync.Mutex {
	pathLocksMu.Lock()
	defer pathLocksMu.Unlock()

	lock, ok := pathLocks[path]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	pathLocks[path] = lock
	return lock
}

func cleanPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is required")
	}
	return filepath.Clean(trimmed), nil
}
