// Package testutil holds filesystem helpers shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FileAssertions provides utilities for asserting file system state in tests.
type FileAssertions struct {
	t       testing.TB
	baseDir string
}

// NewFileAssertions creates a new file assertions helper rooted at baseDir.
func NewFileAssertions(t testing.TB, baseDir string) *FileAssertions {
	return &FileAssertions{
		t:       t,
		baseDir: baseDir,
	}
}

func (fa *FileAssertions) path(rel string) string {
	return filepath.Join(fa.baseDir, filepath.FromSlash(rel))
}

// WriteFile creates rel (and its parent directories) with content.
func (fa *FileAssertions) WriteFile(rel, content string) *FileAssertions {
	fa.t.Helper()
	full := fa.path(rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		fa.t.Fatalf("Failed to create directory for %s: %v", full, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		fa.t.Fatalf("Failed to write %s: %v", full, err)
	}
	return fa
}

// AssertFileExists validates that a file exists.
func (fa *FileAssertions) AssertFileExists(rel string) *FileAssertions {
	fa.t.Helper()
	if _, err := os.Stat(fa.path(rel)); err != nil {
		fa.t.Errorf("Expected file to exist: %s", fa.path(rel))
	}
	return fa
}

// AssertNoFile validates that nothing exists at rel.
func (fa *FileAssertions) AssertNoFile(rel string) *FileAssertions {
	fa.t.Helper()
	if _, err := os.Stat(fa.path(rel)); err == nil {
		fa.t.Errorf("Expected no file at %s", fa.path(rel))
	}
	return fa
}

// AssertFileContains validates that a file contains expected content.
func (fa *FileAssertions) AssertFileContains(rel, expected string) *FileAssertions {
	fa.t.Helper()
	// #nosec G304 - test helper, paths are controlled by test code
	content, err := os.ReadFile(fa.path(rel))
	if err != nil {
		fa.t.Errorf("Failed to read file %s: %v", fa.path(rel), err)
		return fa
	}
	if !strings.Contains(string(content), expected) {
		fa.t.Errorf("Expected file %s to contain %q\nActual content:\n%s", rel, expected, string(content))
	}
	return fa
}

// AssertFileCount validates the number of files with ext found anywhere below rel.
func (fa *FileAssertions) AssertFileCount(rel, ext string, want int) *FileAssertions {
	fa.t.Helper()
	got := 0
	err := filepath.WalkDir(fa.path(rel), func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(d.Name()) == ext {
			got++
		}
		return nil
	})
	if err != nil {
		fa.t.Errorf("Failed to walk %s: %v", fa.path(rel), err)
		return fa
	}
	if got != want {
		fa.t.Errorf("Expected %d %s files below %s, found %d", want, ext, rel, got)
	}
	return fa
}
