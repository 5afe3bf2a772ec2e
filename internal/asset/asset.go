// Package asset models a stylesheet tracked by the build: where it lives on
// disk and the bytes it currently holds.
package asset

import (
	"os"
	"path/filepath"

	serrors "git.home.luguber.info/inful/stylebuilder/internal/errors"
)

// Asset is a logical source file with a location and mutable content.
// An empty SourceRoot or SourcePath means the field is not present.
type Asset interface {
	SourceRoot() string
	SourcePath() string
	Content() []byte
	SetContent(content []byte)
}

// FileAsset is an Asset backed by a file under a root directory.
type FileAsset struct {
	root    string
	path    string
	content []byte
}

// NewFileAsset creates an asset pointing at root/path with empty content.
func NewFileAsset(root, path string) *FileAsset {
	return &FileAsset{root: root, path: path}
}

// Load creates an asset for root/path and reads the file into its content.
func Load(root, path string) (*FileAsset, error) {
	a := NewFileAsset(root, path)
	full := FullPath(a)
	// #nosec G304 -- path comes from discovery under the configured source dir
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, serrors.IO("read source", full, err)
	}
	a.content = data
	return a, nil
}

func (a *FileAsset) SourceRoot() string { return a.root }
func (a *FileAsset) SourcePath() string { return a.path }
func (a *FileAsset) Content() []byte    { return a.content }

func (a *FileAsset) SetContent(content []byte) {
	a.content = content
}

// FullPath joins the asset's root and path, or returns "" when either is missing.
func FullPath(a Asset) string {
	root, path := a.SourceRoot(), a.SourcePath()
	if root == "" || path == "" {
		return ""
	}
	return filepath.Join(root, path)
}
