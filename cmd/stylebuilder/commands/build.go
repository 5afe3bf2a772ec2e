package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/stylebuilder/internal/build"
	"git.home.luguber.info/inful/stylebuilder/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output string `short:"o" help:"Override build.output_dir"`
	Jobs   int    `short:"j" help:"Override build.jobs (maximum concurrent compilations)"`
	Minify bool   `help:"Minify compiled CSS regardless of build.minify"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	out := g.stdout()
	_, _ = fmt.Fprintln(out, "Starting stylebuilder build")
	report, err := b.builder(cfg).Run(ctx)
	PrintReport(out, report)
	return err
}

func (b *BuildCmd) builder(cfg *config.Config) *build.Builder {
	return build.NewBuilder(cfg).
		WithOutputDir(b.Output).
		WithJobs(b.Jobs).
		WithMinify(b.Minify)
}

// PrintReport writes a human readable build summary.
func PrintReport(w io.Writer, report *build.Report) {
	if report == nil {
		return
	}
	for _, res := range report.Failures() {
		_, _ = fmt.Fprintf(w, "FAILED %s\n", res.Source)
	}
	_, _ = fmt.Fprintf(w, "Compiled %d of %d stylesheets in %s (%s)\n",
		report.Succeeded, report.Total(), report.Duration.Round(time.Millisecond), report.Status)
	if report.Skipped > 0 {
		_, _ = fmt.Fprintf(w, "Skipped %d stylesheets after cancellation\n", report.Skipped)
	}
}
