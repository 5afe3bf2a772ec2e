package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"git.home.luguber.info/inful/stylebuilder/internal/asset"
	serrors "git.home.luguber.info/inful/stylebuilder/internal/errors"
	"git.home.luguber.info/inful/stylebuilder/internal/filter"
	"git.home.luguber.info/inful/stylebuilder/internal/filter/cssmin"
	"git.home.luguber.info/inful/stylebuilder/internal/logfields"
	"git.home.luguber.info/inful/stylebuilder/internal/sass"
)

// CompileCmd implements the 'compile' command. The config file is optional.
type CompileCmd struct {
	File     string   `arg:"" help:"Stylesheet to compile"`
	Output   string   `short:"o" help:"Write CSS to this file instead of stdout"`
	Style    string   `help:"Output style (nested|expanded|compact|compressed)"`
	LoadPath []string `name:"load-path" help:"Additional load path (repeatable)"`
	Minify   bool     `help:"Minify the compiled CSS"`
	DryRun   bool     `name:"dry-run" help:"Print the compiler command line without running it"`
}

func (c *CompileCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfigOrDefault(g, root)
	if err != nil {
		return err
	}
	if c.Style != "" {
		cfg.Sass.Style = c.Style
	}
	cfg.Sass.LoadPaths = append(cfg.Sass.LoadPaths, c.LoadPath...)

	opts, err := cfg.SassOptions()
	if err != nil {
		return err
	}
	f, err := sass.New(opts)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(c.File)
	if err != nil {
		return serrors.IO("resolve source", c.File, err)
	}
	a, err := asset.Load(filepath.Dir(abs), filepath.Base(abs))
	if err != nil {
		return err
	}

	if c.DryRun {
		inv, err := f.Prepare(a)
		if err != nil {
			return err
		}
		_ = os.Remove(inv.Output)
		_, _ = fmt.Fprintln(g.stdout(), inv.String())
		return nil
	}

	if _, err := sass.CheckCompiler(opts.CompilerPath); err != nil {
		return serrors.CompilerLaunch(opts.CompilerPath, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	chain := filter.NewChain(f)
	if c.Minify || cfg.Build.Minify {
		chain.Add(cssmin.New())
	}
	if err := chain.Load(ctx, a); err != nil {
		return err
	}
	if err := chain.Dump(ctx, a); err != nil {
		return err
	}

	if c.Output == "" {
		_, err := g.stdout().Write(a.Content())
		return err
	}
	if dir := filepath.Dir(c.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return serrors.IO("create output directory", dir, err)
		}
	}
	// #nosec G306 -- compiled stylesheets are public assets
	if err := os.WriteFile(c.Output, a.Content(), 0o644); err != nil {
		return serrors.IO("write output", c.Output, err)
	}
	slog.Info("Stylesheet compiled", logfields.Asset(abs), logfields.Output(c.Output))
	return nil
}
