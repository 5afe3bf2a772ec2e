// Package cssmin provides a dump-phase filter that minifies compiled CSS.
package cssmin

import (
	"context"
	"log/slog"

	"github.com/dchest/cssmin"

	"git.home.luguber.info/inful/stylebuilder/internal/asset"
	"git.home.luguber.info/inful/stylebuilder/internal/logfields"
)

// Filter minifies asset content when the asset is dumped.
type Filter struct{}

// New returns a minifying filter.
func New() Filter { return Filter{} }

func (Filter) Name() string { return "cssmin" }

// Load is a no-op; minification only applies to the final output.
func (Filter) Load(context.Context, asset.Asset) error { return nil }

// Dump replaces the asset content with its minified form.
func (Filter) Dump(_ context.Context, a asset.Asset) error {
	before := len(a.Content())
	a.SetContent(cssmin.Minify(a.Content()))
	slog.Debug("Minified stylesheet", logfields.Asset(a.SourcePath()), slog.Int("before", before), slog.Int("after", len(a.Content())))
	return nil
}
