package sass

import (
	"os"
	"time"

	serrors "git.home.luguber.info/inful/stylebuilder/internal/errors"
)

// DefaultCompilerPath is used when Options.CompilerPath is empty.
const DefaultCompilerPath = "/usr/bin/sass"

// Options is the compiler configuration. It is a plain value: build it once,
// hand it to New, and the filter keeps its own copy.
type Options struct {
	CompilerPath  string
	UnixNewlines  bool
	Syntax        Syntax
	Style         Style
	Quiet         bool
	DebugInfo     bool
	LineNumbers   bool
	LoadPaths     []string
	CacheLocation string
	NoCache       bool
	Compass       bool

	// Timeout bounds a single compiler run. Zero disables it.
	Timeout time.Duration
}

// DefaultOptions returns the defaults: /usr/bin/sass, syntax inferred from
// the file extension and the cache kept in the system temp directory.
func DefaultOptions() Options {
	return Options{
		CompilerPath:  DefaultCompilerPath,
		Syntax:        SyntaxAuto,
		CacheLocation: os.TempDir(),
	}
}

// Validate checks the enumerated fields.
func (o Options) Validate() error {
	if !o.Style.Valid() {
		return serrors.Configuration("style", "invalid style "+string(o.Style)).
			WithContext("valid", Styles())
	}
	switch o.Syntax {
	case SyntaxAuto, SyntaxSCSS, SyntaxSass:
	default:
		return serrors.Configuration("syntax", "invalid syntax "+o.Syntax.String())
	}
	if o.Timeout < 0 {
		return serrors.Configuration("timeout", "timeout cannot be negative")
	}
	return nil
}

func (o Options) clone() Options {
	c := o
	if o.LoadPaths != nil {
		c.LoadPaths = append([]string(nil), o.LoadPaths...)
	}
	if c.CompilerPath == "" {
		c.CompilerPath = DefaultCompilerPath
	}
	if c.CacheLocation == "" {
		c.CacheLocation = os.TempDir()
	}
	return c
}
