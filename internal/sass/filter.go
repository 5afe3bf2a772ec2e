package sass

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/stylebuilder/internal/asset"
	serrors "git.home.luguber.info/inful/stylebuilder/internal/errors"
	"git.home.luguber.info/inful/stylebuilder/internal/logfields"
	"git.home.luguber.info/inful/stylebuilder/internal/metrics"
)

const tempPrefix = "stylebuilder_sass_"

// Filter compiles sass/scss assets by invoking the external compiler.
// It holds no per-call state and is safe for concurrent use.
type Filter struct {
	opts     Options
	runner   Runner
	recorder metrics.Recorder
	tempDir  string
}

// Option customizes a Filter.
type Option func(*Filter)

// WithRunner replaces the process runner (tests use a fake).
func WithRunner(r Runner) Option {
	return func(f *Filter) {
		if r != nil {
			f.runner = r
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(f *Filter) {
		if r != nil {
			f.recorder = r
		}
	}
}

// WithTempDir sets where compiler output files are created. Empty means os.TempDir().
func WithTempDir(dir string) Option {
	return func(f *Filter) { f.tempDir = dir }
}

// New validates opts and returns a filter bound to a copy of them.
func New(opts Options, options ...Option) (*Filter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f := &Filter{
		opts:     opts.clone(),
		runner:   ExecRunner{},
		recorder: metrics.NoopRecorder{},
	}
	for _, o := range options {
		o(f)
	}
	return f, nil
}

func (f *Filter) Name() string { return "sass" }

// Options returns a copy of the filter's configuration.
func (f *Filter) Options() Options { return f.opts.clone() }

// Args assembles the compiler argument vector for a and the given output path.
// It fails with ErrNoSourceLocation when a has no file on disk.
func (f *Filter) Args(a asset.Asset, output string) ([]string, error) {
	input := inputPath(a)
	if input == "" {
		return nil, ErrNoSourceLocation
	}

	o := f.opts
	args := []string{o.CompilerPath, "--load-path", filepath.Dir(input)}
	if o.UnixNewlines {
		args = append(args, "--unix-newlines")
	}
	if useSCSS(o.Syntax, a.SourcePath()) {
		args = append(args, "--scss")
	}
	if o.Style != StyleUnset {
		args = append(args, "--style", string(o.Style))
	}
	if o.Quiet {
		args = append(args, "--quiet")
	}
	if o.DebugInfo {
		args = append(args, "--debug-info")
	}
	if o.LineNumbers {
		args = append(args, "--line-numbers")
	}
	for _, p := range o.LoadPaths {
		args = append(args, "--load-path", p)
	}
	if o.CacheLocation != "" {
		args = append(args, "--cache-location", o.CacheLocation)
	}
	if o.NoCache {
		args = append(args, "--no-cache")
	}
	if o.Compass {
		args = append(args, "--compass")
	}

	return append(args, input, output), nil
}

// Prepare plans a compiler run for a, creating its unique output file.
// The caller owns the output file and must remove it.
func (f *Filter) Prepare(a asset.Asset) (*Invocation, error) {
	input := inputPath(a)
	if input == "" {
		return nil, serrors.IO("resolve source", a.SourcePath(), ErrNoSourceLocation)
	}

	tmp, err := os.CreateTemp(f.tempDir, tempPrefix+"*")
	if err != nil {
		return nil, serrors.IO("create output file", f.tempDir, err)
	}
	output := tmp.Name()
	if err := tmp.Close(); err != nil {
		removeQuietly(output)
		return nil, serrors.IO("create output file", output, err)
	}
	args, err := f.Args(a, output)
	if err != nil {
		removeQuietly(output)
		return nil, serrors.IO("resolve source", a.SourcePath(), err)
	}

	return &Invocation{
		ID:     uuid.NewString(),
		Args:   args,
		Input:  input,
		Output: output,
	}, nil
}

// Load compiles the asset's file on disk and replaces the asset's content
// with the result. On failure the content is left untouched.
func (f *Filter) Load(ctx context.Context, a asset.Asset) error {
	inv, err := f.Prepare(a)
	if err != nil {
		f.recorder.IncCompileResult(metrics.ResultIOError)
		return err
	}
	defer removeQuietly(inv.Output)

	logger := slog.With(logfields.InvocationID(inv.ID), logfields.Asset(inv.Input))
	logger.Debug("Invoking sass compiler", logfields.Command(inv.String()))

	runCtx := ctx
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := f.runner.Run(runCtx, inv.Args)
	elapsed := time.Since(start)
	f.recorder.ObserveCompileDuration(elapsed)

	if len(res.Stderr) > 0 && err == nil && res.ExitCode == 0 {
		logger.Warn("sass stderr", "error_output", string(res.Stderr))
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			f.recorder.IncCompileResult(metrics.ResultCanceled)
			return serrors.Wrap(err, serrors.CategoryCompilation, serrors.SeverityError, "compiler run interrupted").
				WithContext("input", inv.Input)
		}
		f.recorder.IncCompileResult(metrics.ResultCompileError)
		logger.Error("sass compiler could not be started", logfields.Compiler(f.opts.CompilerPath), logfields.Error(err))
		return serrors.CompilerLaunch(f.opts.CompilerPath, err).
			WithContext("input", inv.Input)
	}

	if res.ExitCode != 0 {
		f.recorder.IncCompileResult(metrics.ResultCompileError)
		logger.Debug("sass compilation failed", logfields.ExitCode(res.ExitCode))
		return serrors.Compilation(string(res.Stderr), res.ExitCode).
			WithContext("input", inv.Input)
	}

	// #nosec G304 -- output was created by Prepare
	data, err := os.ReadFile(inv.Output)
	if err != nil {
		f.recorder.IncCompileResult(metrics.ResultIOError)
		return serrors.IO("read compiler output", inv.Output, err)
	}

	a.SetContent(data)
	f.recorder.IncCompileResult(metrics.ResultSuccess)
	logger.Debug("sass compilation finished",
		logfields.DurationMS(float64(elapsed.Microseconds())/1000),
		slog.Int("bytes", len(data)))
	return nil
}

// Dump does nothing: compilation happens only in the load phase.
func (f *Filter) Dump(context.Context, asset.Asset) error {
	return nil
}

func inputPath(a asset.Asset) string {
	full := asset.FullPath(a)
	if full == "" {
		return ""
	}
	if abs, err := filepath.Abs(full); err == nil {
		return abs
	}
	return full
}

// useSCSS applies the tri-state syntax rule. The extension match is case-sensitive.
func useSCSS(s Syntax, sourcePath string) bool {
	switch s {
	case SyntaxSCSS:
		return true
	case SyntaxSass:
		return false
	default:
		return filepath.Ext(sourcePath) == ".scss"
	}
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove compiler output", logfields.Path(path), logfields.Error(err))
	}
}
