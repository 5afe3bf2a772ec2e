package config

import (
	"fmt"
	"path/filepath"
	"time"

	serrors "git.home.luguber.info/inful/stylebuilder/internal/errors"
	"git.home.luguber.info/inful/stylebuilder/internal/sass"
)

// Validate validates the complete configuration structure.
func Validate(cfg *Config) error {
	if cfg.Version != CurrentVersion {
		return serrors.Configuration("version",
			fmt.Sprintf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion))
	}
	if _, err := cfg.SassOptions(); err != nil {
		return err
	}
	if err := validateBuild(&cfg.Build); err != nil {
		return err
	}
	if _, err := cfg.DebounceInterval(); err != nil {
		return err
	}
	return nil
}

func validateBuild(b *BuildConfig) error {
	src, err := filepath.Abs(b.SourceDir)
	if err != nil {
		return serrors.Configuration("build.source_dir", err.Error())
	}
	out, err := filepath.Abs(b.OutputDir)
	if err != nil {
		return serrors.Configuration("build.output_dir", err.Error())
	}
	if src == out {
		return serrors.Configuration("build.output_dir", "output directory must differ from source directory")
	}
	if b.Jobs < 1 {
		return serrors.Configuration("build.jobs", "jobs must be at least 1")
	}
	return nil
}

// SassOptions converts the sass section into compiler options, rejecting
// unknown style or syntax keywords.
func (c *Config) SassOptions() (sass.Options, error) {
	s := c.Sass
	style, err := sass.ParseStyle(s.Style)
	if err != nil {
		return sass.Options{}, fieldError("sass.style", err)
	}
	syntax, err := sass.ParseSyntax(s.Syntax)
	if err != nil {
		return sass.Options{}, fieldError("sass.syntax", err)
	}
	timeout, err := parseDuration("sass.timeout", s.Timeout)
	if err != nil {
		return sass.Options{}, err
	}

	opts := sass.Options{
		CompilerPath:  s.CompilerPath,
		UnixNewlines:  s.UnixNewlines,
		Syntax:        syntax,
		Style:         style,
		Quiet:         s.Quiet,
		DebugInfo:     s.DebugInfo,
		LineNumbers:   s.LineNumbers,
		LoadPaths:     append([]string(nil), s.LoadPaths...),
		CacheLocation: s.CacheLocation,
		NoCache:       s.NoCache,
		Compass:       s.Compass,
		Timeout:       timeout,
	}
	if err := opts.Validate(); err != nil {
		return sass.Options{}, err
	}
	return opts, nil
}

// DebounceInterval parses watch.debounce.
func (c *Config) DebounceInterval() (time.Duration, error) {
	return parseDuration("watch.debounce", c.Watch.Debounce)
}

func parseDuration(field, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, serrors.Configuration(field, fmt.Sprintf("invalid duration %q", raw))
	}
	if d < 0 {
		return 0, serrors.Configuration(field, fmt.Sprintf("duration %q cannot be negative", raw))
	}
	return d, nil
}

// fieldError re-labels a configuration error with its full config key.
func fieldError(field string, err error) error {
	if se, ok := serrors.As(err); ok {
		return serrors.Configuration(field, se.Message)
	}
	return serrors.Wrap(err, serrors.CategoryConfig, serrors.SeverityFatal, "invalid "+field)
}
