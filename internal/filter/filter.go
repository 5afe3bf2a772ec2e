// Package filter defines the two-phase transformation contract applied to
// assets and an ordered chain that runs several filters in sequence.
//
// Load runs when an asset is read into the build; Dump runs when the
// transformed asset is about to be written out.
package filter

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/stylebuilder/internal/asset"
	"git.home.luguber.info/inful/stylebuilder/internal/logfields"
)

// Filter transforms an asset's content.
type Filter interface {
	Load(ctx context.Context, a asset.Asset) error
	Dump(ctx context.Context, a asset.Asset) error
}

// Named is implemented by filters that want a readable name in logs and errors.
type Named interface {
	Name() string
}

// NameOf returns the filter's name, or its type when it does not implement Named.
func NameOf(f Filter) string {
	if n, ok := f.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", f)
}

// Chain applies filters in the order they were added.
type Chain struct {
	filters []Filter
}

// NewChain creates a chain from the given filters; nil entries are dropped.
func NewChain(filters ...Filter) *Chain {
	c := &Chain{}
	for _, f := range filters {
		c.Add(f)
	}
	return c
}

// Add appends a filter to the end of the chain.
func (c *Chain) Add(f Filter) {
	if f == nil {
		return
	}
	c.filters = append(c.filters, f)
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int { return len(c.filters) }

// Load runs every filter's Load phase. The first failure stops the chain.
func (c *Chain) Load(ctx context.Context, a asset.Asset) error {
	return c.apply(ctx, a, "load", Filter.Load)
}

// Dump runs every filter's Dump phase. The first failure stops the chain.
func (c *Chain) Dump(ctx context.Context, a asset.Asset) error {
	return c.apply(ctx, a, "dump", Filter.Dump)
}

func (c *Chain) apply(ctx context.Context, a asset.Asset, phase string, fn func(Filter, context.Context, asset.Asset) error) error {
	for _, f := range c.filters {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := NameOf(f)
		slog.Debug("Applying filter", logfields.Filter(name), logfields.Stage(phase), logfields.Asset(a.SourcePath()))
		if err := fn(f, ctx, a); err != nil {
			return fmt.Errorf("%s filter %s: %w", phase, name, err)
		}
	}
	return nil
}

// Name implements Named.
func (c *Chain) Name() string { return "chain" }
