package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/stylebuilder/internal/config"
)

// LogLevelEnv overrides the configured log level when set.
const LogLevelEnv = "STYLEBUILDER_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	// Stdout receives user-facing output; nil means os.Stdout.
	Stdout io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"stylebuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Compile every stylesheet under the source directory"`
	Compile CompileCmd `cmd:"" help:"Compile a single stylesheet"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever sources or configuration change"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; it installs a logger before any config is read.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	SetupLogging(os.Stderr, config.LoggingConfig{}, c.Verbose)
	return nil
}

// SetupLogging installs and returns the default logger.
// Precedence for the level: --verbose > STYLEBUILDER_LOG_LEVEL > config.
func SetupLogging(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := cfg.Level.SlogLevel()
	if env := os.Getenv(LogLevelEnv); env != "" {
		level = config.NormalizeLogLevel(env).SlogLevel()
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// loadConfig loads the configuration file and applies its logging section.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	applyLogging(g, root, cfg)
	return cfg, nil
}

// loadConfigOrDefault is loadConfig for commands that work without a config file.
func loadConfigOrDefault(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(root.Config)
	if err != nil {
		return nil, err
	}
	applyLogging(g, root, cfg)
	return cfg, nil
}

func applyLogging(g *Global, root *CLI, cfg *config.Config) {
	logger := SetupLogging(os.Stderr, cfg.Monitoring.Logging, root.Verbose)
	if g != nil {
		g.Logger = logger
	}
}
