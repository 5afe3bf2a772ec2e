package config

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Snapshot computes a stable hash of the fields that affect compiled output.
// Logging, metrics and watch settings are excluded so that changing them does
// not force a rebuild. Load path order is significant to the compiler and is
// hashed as written. Call on a loaded (normalized and defaulted) config.
func (c *Config) Snapshot() string {
	if c == nil {
		return ""
	}
	h := sha256.New()
	w := func(parts ...string) { h.Write([]byte(strings.Join(parts, "="))); h.Write([]byte{0}) }

	s := c.Sass
	w("sass.compiler_path", s.CompilerPath)
	w("sass.style", s.Style)
	w("sass.syntax", s.Syntax)
	w("sass.unix_newlines", strconv.FormatBool(s.UnixNewlines))
	w("sass.debug_info", strconv.FormatBool(s.DebugInfo))
	w("sass.line_numbers", strconv.FormatBool(s.LineNumbers))
	w("sass.load_paths", strings.Join(s.LoadPaths, "\x1f"))
	w("sass.no_cache", strconv.FormatBool(s.NoCache))
	w("sass.compass", strconv.FormatBool(s.Compass))

	w("build.source_dir", c.Build.SourceDir)
	w("build.output_dir", c.Build.OutputDir)
	w("build.minify", strconv.FormatBool(c.Build.Minify))

	return hex.EncodeToString(h.Sum(nil))
}
