package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/stylebuilder/internal/build"
	"git.home.luguber.info/inful/stylebuilder/internal/config"
	"git.home.luguber.info/inful/stylebuilder/internal/logfields"
	"git.home.luguber.info/inful/stylebuilder/internal/metrics"
	"git.home.luguber.info/inful/stylebuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Output      string `short:"o" help:"Override build.output_dir"`
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address (overrides monitoring.metrics)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var reg *prom.Registry
	if addr := w.metricsAddr(cfg); addr != "" {
		reg = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	session := &watchSession{cfg: cfg, output: w.Output, recorder: recorder, stdout: g.stdout()}
	if err := session.rebuild(ctx); err != nil && !errors.Is(err, context.Canceled) {
		// keep watching so the next save can fix it
		slog.Error("Initial build failed", logfields.Error(err))
	}

	debounce, err := cfg.DebounceInterval()
	if err != nil {
		return err
	}
	watcher, err := watch.New(WatchRoots(cfg), session.rebuild,
		watch.WithDebounce(debounce),
		watch.WithConfigFile(root.Config, func(context.Context) (bool, error) { return session.reload(root.Config) }),
		watch.WithRecorder(recorder))
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return watcher.Run(ctx) })
	if reg != nil {
		eg.Go(func() error { return serveMetrics(ctx, w.metricsAddr(cfg), reg) })
	}
	return eg.Wait()
}

func (w *WatchCmd) metricsAddr(cfg *config.Config) string {
	if w.MetricsAddr != "" {
		return w.MetricsAddr
	}
	if cfg.Monitoring.Metrics.Enabled {
		return cfg.Monitoring.Metrics.Addr
	}
	return ""
}

// WatchRoots lists the directories that can affect the build output. Missing
// directories are dropped.
func WatchRoots(cfg *config.Config) []string {
	candidates := []string{cfg.Build.SourceDir}
	candidates = append(candidates, cfg.Sass.LoadPaths...)
	candidates = append(candidates, cfg.Watch.ExtraPaths...)

	var roots []string
	seen := map[string]bool{}
	for _, p := range candidates {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		if info, err := os.Stat(p); err != nil || !info.IsDir() {
			slog.Warn("Skipping watch path", logfields.Path(p))
			continue
		}
		roots = append(roots, p)
	}
	return roots
}

// watchSession holds the configuration in effect between rebuilds. It is only
// touched from the initial build and the watcher goroutine.
type watchSession struct {
	cfg      *config.Config
	output   string
	recorder metrics.Recorder
	stdout   io.Writer
}

func (s *watchSession) rebuild(ctx context.Context) error {
	report, err := build.NewBuilder(s.cfg).
		WithOutputDir(s.output).
		WithRecorder(s.recorder).
		Run(ctx)
	PrintReport(s.stdout, report)
	return err
}

// reload re-reads path and reports whether the compile-affecting settings changed.
func (s *watchSession) reload(path string) (bool, error) {
	next, err := config.Load(path)
	if err != nil {
		return false, err
	}
	changed := next.Snapshot() != s.cfg.Snapshot()
	if next.Build.SourceDir != s.cfg.Build.SourceDir {
		slog.Warn("build.source_dir changed; restart watch to monitor the new directory",
			logfields.Path(next.Build.SourceDir))
	}
	s.cfg = next
	return changed, nil
}

func serveMetrics(ctx context.Context, addr string, reg *prom.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Serving metrics", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
