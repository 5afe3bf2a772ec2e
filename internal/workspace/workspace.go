package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/stylebuilder/internal/logfields"
)

// Manager handles a single scratch directory.
type Manager struct {
	baseDir string
	tempDir string
}

// NewManager creates a manager rooted at baseDir (os.TempDir() when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Create creates the scratch directory.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	dir, err := os.MkdirTemp(m.baseDir, fmt.Sprintf("stylebuilder-%s-", timestamp))
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}

	m.tempDir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// GetPath returns the path to the scratch directory ("" before Create).
func (m *Manager) GetPath() string {
	return m.tempDir
}

// Cleanup removes the scratch directory and everything left in it.
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}

	if err := os.RemoveAll(m.tempDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}

	slog.Debug("Cleaned up workspace", logfields.Path(m.tempDir))
	m.tempDir = ""
	return nil
}
