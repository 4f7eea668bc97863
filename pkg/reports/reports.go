// Package reports persists user-submitted problem reports as plain text
// files, one file per report.
package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

const timestampLayout = "20060102150405"

var unsafeNamePattern = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Manager writes problem reports into a directory. Filenames carry the
// reporting user and a timestamp so reports never overwrite each other.
type Manager struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

// NewManager creates a report manager, creating the directory if needed.
func NewManager(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &Manager{dir: dir, now: time.Now}, nil
}

// Save writes one report to disk and returns the path it was written to.
// The write goes through a temporary file and an atomic rename.
func (m *Manager) Save(user string, text string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filename := fmt.Sprintf("report-%s-%s.txt", sanitizeName(user), m.now().Format(timestampLayout))
	path := filepath.Join(m.dir, filename)

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename report file: %w", err)
	}

	return path, nil
}

// Dir returns the report directory path.
func (m *Manager) Dir() string {
	return m.dir
}

// Count returns the number of report files currently on disk.
func (m *Manager) Count() (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read report directory: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "report-") && strings.HasSuffix(name, ".txt") {
			count++
		}
	}
	return count, nil
}

// sanitizeName strips characters that are unsafe in a filename. An empty
// or fully stripped name falls back to "anonymous".
func sanitizeName(user string) string {
	cleaned := unsafeNamePattern.ReplaceAllString(strings.TrimSpace(user), "")
	if cleaned == "" {
		return "anonymous"
	}
	return cleaned
}
