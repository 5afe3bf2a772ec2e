package config

import (
	"os"
	"runtime"
	"strings"

	"git.home.luguber.info/inful/stylebuilder/internal/sass"
)

const (
	defaultSourceDir  = "./styles"
	defaultOutputDir  = "./public/css"
	defaultDebounce   = "300ms"
	defaultMetricAddr = ":9464"
)

// normalize case-folds enumerations before defaults and validation run.
func normalize(cfg *Config) {
	cfg.Version = strings.TrimSpace(cfg.Version)
	cfg.Sass.Style = strings.ToLower(strings.TrimSpace(cfg.Sass.Style))
	cfg.Sass.Syntax = strings.ToLower(strings.TrimSpace(cfg.Sass.Syntax))
	cfg.Monitoring.Logging.Level = NormalizeLogLevel(string(cfg.Monitoring.Logging.Level))
	cfg.Monitoring.Logging.Format = NormalizeLogFormat(string(cfg.Monitoring.Logging.Format))
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}

	if cfg.Sass.CompilerPath == "" {
		cfg.Sass.CompilerPath = sass.DefaultCompilerPath
	}
	if cfg.Sass.Syntax == "" {
		cfg.Sass.Syntax = "auto"
	}
	if cfg.Sass.CacheLocation == "" {
		cfg.Sass.CacheLocation = os.TempDir()
	}

	if cfg.Build.SourceDir == "" {
		cfg.Build.SourceDir = defaultSourceDir
	}
	if cfg.Build.OutputDir == "" {
		cfg.Build.OutputDir = defaultOutputDir
	}
	if cfg.Build.Jobs <= 0 {
		cfg.Build.Jobs = runtime.NumCPU()
	}

	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = defaultDebounce
	}

	if cfg.Monitoring.Metrics.Addr == "" {
		cfg.Monitoring.Metrics.Addr = defaultMetricAddr
	}
}
