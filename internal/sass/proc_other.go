//go:build !unix

package sass

import "os/exec"

// isolateProcess keeps the default behavior of killing only the direct child.
func isolateProcess(*exec.Cmd) {}
