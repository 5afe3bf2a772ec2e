package sass

import "github.com/kballard/go-shellquote"

// Invocation is one planned compiler run.
type Invocation struct {
	ID     string
	Args   []string
	Input  string
	Output string
}

// String renders the argument vector as a shell-quoted command line. It is
// meant for logs and dry runs; execution always passes Args directly.
func (i *Invocation) String() string {
	return shellquote.Join(i.Args...)
}
