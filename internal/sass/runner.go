package sass

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// DefaultWaitDelay bounds how long Run waits for output pipes to close after
// the compiler was killed.
const DefaultWaitDelay = 2 * time.Second

// RunResult carries the outcome of a process that was started.
type RunResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner executes an argument vector synchronously. A process that could not
// be started is reported as an error; a process that ran and exited non-zero
// is reported through RunResult.ExitCode with a nil error.
type Runner interface {
	Run(ctx context.Context, argv []string) (RunResult, error)
}

// ExecRunner runs commands with os/exec. Arguments are passed as a vector,
// never through a shell.
type ExecRunner struct {
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env replaces the environment when non-nil.
	Env []string
	// WaitDelay overrides DefaultWaitDelay when positive.
	WaitDelay time.Duration
}

func (r ExecRunner) Run(ctx context.Context, argv []string) (RunResult, error) {
	if len(argv) == 0 {
		return RunResult{}, ErrEmptyCommand
	}

	// #nosec G204 -- argv[0] is the configured compiler path
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	isolateProcess(cmd)
	cmd.WaitDelay = DefaultWaitDelay
	if r.WaitDelay > 0 {
		cmd.WaitDelay = r.WaitDelay
	}
	if r.Env != nil {
		cmd.Env = r.Env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

// CheckCompiler verifies that path resolves to an executable.
func CheckCompiler(path string) (string, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", errors.Join(ErrCompilerNotFound, err)
	}
	return resolved, nil
}
