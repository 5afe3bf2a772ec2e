package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	serrors "git.home.luguber.info/inful/stylebuilder/internal/errors"
	"git.home.luguber.info/inful/stylebuilder/internal/logfields"
)

// CurrentVersion is the configuration format version written by Init.
const CurrentVersion = "1.0"

// Config represents the application configuration
type Config struct {
	Version    string           `yaml:"version"`
	Sass       SassConfig       `yaml:"sass"`
	Build      BuildConfig      `yaml:"build"`
	Watch      WatchConfig      `yaml:"watch,omitempty"`
	Monitoring MonitoringConfig `yaml:"monitoring,omitempty"`
}

// SassConfig holds the compiler options. Enumerations are kept as strings
// here and parsed into typed values by SassOptions.
type SassConfig struct {
	CompilerPath  string   `yaml:"compiler_path"`
	Style         string   `yaml:"style,omitempty"`  // nested|expanded|compact|compressed
	Syntax        string   `yaml:"syntax,omitempty"` // auto|scss|sass
	UnixNewlines  bool     `yaml:"unix_newlines,omitempty"`
	Quiet         bool     `yaml:"quiet,omitempty"`
	DebugInfo     bool     `yaml:"debug_info,omitempty"`
	LineNumbers   bool     `yaml:"line_numbers,omitempty"`
	LoadPaths     []string `yaml:"load_paths,omitempty"`
	CacheLocation string   `yaml:"cache_location,omitempty"` // default: system temp dir
	NoCache       bool     `yaml:"no_cache,omitempty"`
	Compass       bool     `yaml:"compass,omitempty"`
	Timeout       string   `yaml:"timeout,omitempty"` // duration, e.g. "30s"; empty or "0s" disables
}

// BuildConfig controls discovery and output.
type BuildConfig struct {
	SourceDir string `yaml:"source_dir"`
	OutputDir string `yaml:"output_dir"`
	Jobs      int    `yaml:"jobs,omitempty"`
	Minify    bool   `yaml:"minify,omitempty"`
	TempDir   string `yaml:"temp_dir,omitempty"` // base for per-build scratch dirs
}

// WatchConfig controls the rebuild-on-change loop.
type WatchConfig struct {
	Debounce   string   `yaml:"debounce,omitempty"`
	ExtraPaths []string `yaml:"extra_paths,omitempty"`
}

// MonitoringConfig represents monitoring and observability configuration
type MonitoringConfig struct {
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr,omitempty"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", logfields.Error(err))
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, serrors.ConfigNotFound(configPath)
	}

	// #nosec G304 -- config path is provided by the operator
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, serrors.IO("read config", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration content, expanding environment variables,
// then normalizes, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, serrors.Wrap(err, serrors.CategoryConfig, serrors.SeverityFatal, "failed to unmarshal config")
	}

	if err := finalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configPath when it exists and otherwise returns the defaults.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Default()
	}
	return Load(configPath)
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finalize(cfg *Config) error {
	normalize(cfg)
	applyDefaults(cfg)
	return Validate(cfg)
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return serrors.New(serrors.CategoryConfig, serrors.SeverityFatal,
			fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath))
	}

	example := Config{
		Version: CurrentVersion,
		Sass: SassConfig{
			CompilerPath: "/usr/bin/sass",
			Style:        "compressed",
			Syntax:       "auto",
			LoadPaths:    []string{"./vendor/styles"},
			Timeout:      "60s",
		},
		Build: BuildConfig{
			SourceDir: "./styles",
			OutputDir: "./public/css",
			Jobs:      4,
		},
		Watch: WatchConfig{
			Debounce: "300ms",
		},
		Monitoring: MonitoringConfig{
			Metrics: MetricsConfig{Enabled: false, Addr: ":9464"},
			Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return serrors.Internal("failed to marshal example config", err)
	}

	header := "# stylebuilder configuration\n# Values may reference environment variables, e.g. ${SASS_BIN}.\n"
	if err := os.WriteFile(configPath, append([]byte(header), data...), 0o600); err != nil {
		return serrors.IO("write config", configPath, err)
	}
	return nil
}
