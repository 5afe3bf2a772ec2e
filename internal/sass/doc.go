// Package sass implements the stylesheet compiler filter: it maps an immutable
// set of compiler options to command-line flags, runs the external sass
// binary against the asset's file on disk and replaces the asset's content
// with the compiled output.
//
// The filter deliberately reads the source from disk rather than from the
// asset's in-memory content so that debug annotations emitted by the compiler
// point at the real file. Callers must therefore make sure the asset's backing
// file exists at SourceRoot/SourcePath; in-memory edits made by earlier filters
// are not seen by the compiler.
//
// Flags are emitted in a fixed order:
//
//	<compiler> [--load-path <asset dir>] [--unix-newlines] [--scss]
//	  [--style <style>] [--quiet] [--debug-info] [--line-numbers]
//	  [--load-path <dir>]... [--cache-location <dir>] [--no-cache]
//	  [--compass] <input> <output>
package sass
