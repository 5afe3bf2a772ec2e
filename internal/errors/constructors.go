package errors

// Convenience functions for common error patterns

// Configuration errors

func Configuration(field, reason string) *StyleError {
	return New(CategoryConfig, SeverityFatal, reason).
		WithContext("field", field)
}

func ConfigNotFound(path string) *StyleError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *StyleError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Compiler errors

// Compilation reports a compiler run that exited non-zero. The message is the
// compiler's standard error output verbatim.
func Compilation(stderr string, exitCode int) *StyleError {
	return New(CategoryCompilation, SeverityError, stderr).
		WithContext("exit_code", exitCode)
}

// CompilerLaunch reports that the compiler process could not be started.
func CompilerLaunch(path string, cause error) *StyleError {
	return Wrap(cause, CategoryCompilation, SeverityError, "compiler could not be started").
		WithContext("compiler", path)
}

// Filesystem errors

func IO(operation, path string, cause error) *StyleError {
	return Wrap(cause, CategoryFileSystem, SeverityError, operation+" failed").
		WithContext("operation", operation).
		WithContext("path", path)
}

// Build pipeline errors

func BuildFailed(failed, total int) *StyleError {
	return New(CategoryBuild, SeverityFatal, "one or more stylesheets failed to compile").
		WithContext("failed", failed).
		WithContext("total", total)
}

func Internal(message string, cause error) *StyleError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
