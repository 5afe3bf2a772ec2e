package build

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	serrors "git.home.luguber.info/inful/stylebuilder/internal/errors"
)

var stylesheetExts = []string{".scss", ".sass"}

// IsStylesheet reports whether name has a compilable stylesheet extension.
// Partials are included; use IsPartial to exclude them.
func IsStylesheet(name string) bool {
	return slices.Contains(stylesheetExts, filepath.Ext(name))
}

// IsPartial reports whether name is a sass partial (basename starts with "_").
func IsPartial(name string) bool {
	return strings.HasPrefix(filepath.Base(name), "_")
}

func isHidden(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, ".")
}

// Discover returns the slash-separated paths, relative to sourceDir, of every
// stylesheet that compiles to its own output file. Partials and hidden
// directories are skipped. The result is sorted.
func Discover(sourceDir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != sourceDir && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsStylesheet(d.Name()) || IsPartial(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		found = append(found, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, serrors.IO("discover sources", sourceDir, err)
	}
	slices.Sort(found)
	return found, nil
}

// OutputPath maps a relative source path to its destination under outputDir.
func OutputPath(outputDir, rel string) string {
	rel = filepath.FromSlash(rel)
	return filepath.Join(outputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".css")
}
