package build

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/stylebuilder/internal/asset"
	"git.home.luguber.info/inful/stylebuilder/internal/config"
	serrors "git.home.luguber.info/inful/stylebuilder/internal/errors"
	"git.home.luguber.info/inful/stylebuilder/internal/filter"
	"git.home.luguber.info/inful/stylebuilder/internal/filter/cssmin"
	"git.home.luguber.info/inful/stylebuilder/internal/logfields"
	"git.home.luguber.info/inful/stylebuilder/internal/metrics"
	"git.home.luguber.info/inful/stylebuilder/internal/observability"
	"git.home.luguber.info/inful/stylebuilder/internal/sass"
	"git.home.luguber.info/inful/stylebuilder/internal/workspace"
)

// Builder compiles every stylesheet under the configured source directory.
type Builder struct {
	cfg              *config.Config
	recorder         metrics.Recorder
	runner           sass.Runner
	workspaceFactory func() *workspace.Manager

	outputDir string
	jobs      int
	minify    bool
}

// NewBuilder creates a builder for cfg, which must already be loaded.
func NewBuilder(cfg *config.Config) *Builder {
	b := &Builder{
		cfg:       cfg,
		recorder:  metrics.NoopRecorder{},
		outputDir: cfg.Build.OutputDir,
		jobs:      cfg.Build.Jobs,
		minify:    cfg.Build.Minify,
	}
	b.workspaceFactory = func() *workspace.Manager {
		return workspace.NewManager(b.cfg.Build.TempDir)
	}
	return b
}

// WithRecorder attaches a metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithRunner replaces the process runner used by the sass filter (for testing).
func (b *Builder) WithRunner(r sass.Runner) *Builder {
	b.runner = r
	return b
}

// WithWorkspaceFactory allows injecting a custom workspace factory (for testing).
func (b *Builder) WithWorkspaceFactory(factory func() *workspace.Manager) *Builder {
	b.workspaceFactory = factory
	return b
}

// WithOutputDir overrides build.output_dir.
func (b *Builder) WithOutputDir(dir string) *Builder {
	if dir != "" {
		b.outputDir = dir
	}
	return b
}

// WithJobs overrides build.jobs. Values below 1 are ignored.
func (b *Builder) WithJobs(n int) *Builder {
	if n > 0 {
		b.jobs = n
	}
	return b
}

// WithMinify forces minification on.
func (b *Builder) WithMinify(enabled bool) *Builder {
	b.minify = b.minify || enabled
	return b
}

// OutputDir returns the directory the builder writes to.
func (b *Builder) OutputDir() string { return b.outputDir }

// Run executes one complete build. The report is returned even on error.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{
		BuildID:    start.Format("20060102-150405.000"),
		StartTime:  start,
		ConfigHash: b.cfg.Snapshot(),
	}
	ctx = observability.WithBuildID(ctx, report.BuildID)

	opts, err := b.cfg.SassOptions()
	if err != nil {
		return b.fail(report, err)
	}

	sourceDir := b.cfg.Build.SourceDir
	ctx = observability.WithStage(ctx, "discover")
	sources, err := Discover(sourceDir)
	if err != nil {
		return b.fail(report, err)
	}
	if len(sources) == 0 {
		observability.WarnContext(ctx, "No stylesheets found", logfields.Path(sourceDir))
		report.finish(StatusSuccess)
		b.recorder.IncBuildOutcome(metrics.BuildSuccess)
		b.recorder.ObserveBuildDuration(report.Duration)
		return report, nil
	}

	ws := b.workspaceFactory()
	if err := ws.Create(); err != nil {
		return b.fail(report, serrors.IO("create workspace", ws.GetPath(), err))
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			observability.WarnContext(ctx, "Failed to cleanup workspace", logfields.Error(err))
		}
	}()

	chain, err := b.newChain(opts, ws.GetPath())
	if err != nil {
		return b.fail(report, err)
	}

	ctx = observability.WithStage(ctx, "compile")
	observability.InfoContext(ctx, "Starting build",
		logfields.Path(sourceDir),
		logfields.Output(b.outputDir),
		logfields.Count(len(sources)),
		logfields.Jobs(b.jobs))
	b.recorder.SetBuildConcurrency(b.jobs)

	report.Results = make([]Result, len(sources))
	for i, src := range sources {
		report.Results[i] = Result{Source: src, Skipped: true}
	}

	var g errgroup.Group
	g.SetLimit(b.jobs)
	for i, src := range sources {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// g.Go may have waited on the job limit past a cancellation.
			if ctx.Err() != nil {
				return nil
			}
			report.Results[i] = b.compile(ctx, chain, sourceDir, src)
			return nil
		})
	}
	_ = g.Wait()

	for i := range report.Results {
		res := &report.Results[i]
		switch {
		case res.Skipped:
			res.Err = context.Canceled
			report.Skipped++
		case res.Failed():
			report.Failed++
		default:
			report.Succeeded++
		}
	}

	if err := ctx.Err(); err != nil {
		report.finish(StatusCanceled)
		b.recorder.IncBuildOutcome(metrics.BuildCanceled)
		b.recorder.ObserveBuildDuration(report.Duration)
		observability.WarnContext(ctx, "Build canceled",
			slog.Int("succeeded", report.Succeeded),
			slog.Int("skipped", report.Skipped))
		return report, err
	}
	if report.Failed > 0 {
		report.finish(StatusFailed)
		b.recorder.IncBuildOutcome(metrics.BuildFailed)
		b.recorder.ObserveBuildDuration(report.Duration)
		observability.ErrorContext(ctx, "Build failed",
			slog.Int("failed", report.Failed),
			logfields.Count(report.Total()),
			logfields.DurationMS(millis(report.Duration)))
		return report, serrors.BuildFailed(report.Failed, report.Total())
	}

	report.finish(StatusSuccess)
	b.recorder.IncBuildOutcome(metrics.BuildSuccess)
	b.recorder.ObserveBuildDuration(report.Duration)
	observability.InfoContext(ctx, "Build completed",
		logfields.Count(report.Succeeded),
		logfields.DurationMS(millis(report.Duration)))
	return report, nil
}

func (b *Builder) newChain(opts sass.Options, tempDir string) (*filter.Chain, error) {
	sassOpts := []sass.Option{
		sass.WithTempDir(tempDir),
		sass.WithRecorder(b.recorder),
	}
	if b.runner != nil {
		sassOpts = append(sassOpts, sass.WithRunner(b.runner))
	}
	sf, err := sass.New(opts, sassOpts...)
	if err != nil {
		return nil, err
	}
	chain := filter.NewChain(sf)
	if b.minify {
		chain.Add(cssmin.New())
	}
	return chain, nil
}

func (b *Builder) compile(ctx context.Context, chain *filter.Chain, sourceDir, src string) Result {
	start := time.Now()
	out, err := b.compileFile(ctx, chain, sourceDir, src)
	res := Result{Source: src, Output: out, Duration: time.Since(start), Err: err}
	if err != nil {
		res.Output = ""
		observability.ErrorContext(ctx, "Stylesheet failed", logfields.Asset(src), logfields.Error(err))
		return res
	}
	observability.DebugContext(ctx, "Stylesheet compiled", logfields.Asset(src), logfields.Output(out), logfields.DurationMS(millis(res.Duration)))
	return res
}

func (b *Builder) compileFile(ctx context.Context, chain *filter.Chain, sourceDir, src string) (string, error) {
	a, err := asset.Load(sourceDir, filepath.FromSlash(src))
	if err != nil {
		return "", err
	}
	if err := chain.Load(ctx, a); err != nil {
		return "", err
	}
	if err := chain.Dump(ctx, a); err != nil {
		return "", err
	}

	out := OutputPath(b.outputDir, src)
	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return "", serrors.IO("create output directory", filepath.Dir(out), err)
	}
	// #nosec G306 -- compiled stylesheets are public assets
	if err := os.WriteFile(out, a.Content(), 0o644); err != nil {
		return "", serrors.IO("write output", out, err)
	}
	return out, nil
}

func (b *Builder) fail(report *Report, err error) (*Report, error) {
	report.finish(StatusFailed)
	b.recorder.IncBuildOutcome(metrics.BuildFailed)
	b.recorder.ObserveBuildDuration(report.Duration)
	return report, err
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
