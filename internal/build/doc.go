// Package build provides the stylesheet build pipeline.
//
// A build discovers every compilable stylesheet below the configured source
// directory, runs each one through the filter chain (the sass compiler,
// optionally followed by the CSS minifier) with bounded concurrency, and
// writes the result to the mirrored location under the output directory.
//
// Per-file failures do not stop the remaining files. They are collected in
// the Report, and Run returns a build-category error once every file has been
// attempted.
package build
