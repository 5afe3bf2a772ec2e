package sass

import "errors"

var (
	// ErrCompilerNotFound indicates the configured compiler path does not resolve to an executable.
	ErrCompilerNotFound = errors.New("sass compiler not found")
	// ErrNoSourceLocation indicates the asset has no source root or path, so there is no file to compile.
	ErrNoSourceLocation = errors.New("asset has no source location")
	// ErrEmptyCommand indicates a runner was invoked without an argument vector.
	ErrEmptyCommand = errors.New("empty command")
)
