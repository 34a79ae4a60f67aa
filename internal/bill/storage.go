package bill

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// allowedExtensions is the upload allow-list, matched case-insensitively
var allowedExtensions = map[string]bool{
	"pdf":  true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
}

// AllowedFile reports whether the filename carries an accepted extension
func AllowedFile(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return ext != "" && allowedExtensions[ext]
}

// Storage defines the interface for scratch file storage during processing
type Storage interface {
	// Save saves a file and returns the path/filename
	Save(filename string, data []byte) (string, error)

	// Get retrieves a file by path
	Get(path string) ([]byte, error)

	// Delete removes a file
	Delete(path string) error

	// CleanupOlderThan removes files older than the given age; failures are
	// logged and swallowed
	CleanupOlderThan(age time.Duration)

	// Check verifies the storage location is writable
	Check() error
}

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save saves a file to local storage
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	path := filepath.Join(l.basePath, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return filename, nil
}

// Get retrieves a file from local storage
func (l *LocalStorage) Get(path string) ([]byte, error) {
	fullPath := filepath.Join(l.basePath, path)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file from local storage
func (l *LocalStorage) Delete(path string) error {
	fullPath := filepath.Join(l.basePath, path)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes scratch files left behind by prior crashed runs.
// It never fails the caller; sweep errors are logged and swallowed.
func (l *LocalStorage) CleanupOlderThan(age time.Duration) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		slog.Error("Error during cleanup sweep", "path", l.basePath, "error", err)
		return
	}

	cutoff := time.Now().Add(-age)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			slog.Error("Error reading file info during cleanup", "file", entry.Name(), "error", err)
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(l.basePath, entry.Name())); err != nil {
				slog.Error("Error cleaning up old file", "file", entry.Name(), "error", err)
				continue
			}
			slog.Info("Cleaned up old file", "file", entry.Name())
		}
	}
}

// Check verifies the upload directory is writable
func (l *LocalStorage) Check() error {
	probe := filepath.Join(l.basePath, ".healthcheck")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("upload directory not writable: %w", err)
	}
	return os.Remove(probe)
}

// sanitizeFilename cleans up a filename before it is used in an on-disk
// path: strips any directory components, drops unsafe characters and
// truncates overly long names.
func sanitizeFilename(filename string) string {
	// Drop any path components (defeats ../ traversal in declared names)
	filename = filepath.Base(filepath.Clean(filename))

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Keep only alphanumeric, spaces, hyphens, and underscores
	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "bill"
	}

	return base + strings.ToLower(ext)
}
