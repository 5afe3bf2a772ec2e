package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyAsset        = "asset"
	KeyPath         = "path"
	KeyOutput       = "output"
	KeyInvocationID = "invocation_id"
	KeyBuildID      = "build_id"
	KeyCompiler     = "compiler"
	KeyCommand      = "command"
	KeyExitCode     = "exit_code"
	KeyStage        = "stage"
	KeyFilter       = "filter"
	KeyDurationMS   = "duration_ms"
	KeyCount        = "count"
	KeyJobs         = "jobs"
	KeyError        = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Asset(a string) slog.Attr         { return slog.String(KeyAsset, a) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr        { return slog.String(KeyOutput, p) }
func InvocationID(id string) slog.Attr { return slog.String(KeyInvocationID, id) }
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Compiler(p string) slog.Attr      { return slog.String(KeyCompiler, p) }
func Command(c string) slog.Attr       { return slog.String(KeyCommand, c) }
func ExitCode(c int) slog.Attr         { return slog.Int(KeyExitCode, c) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Filter(name string) slog.Attr     { return slog.String(KeyFilter, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Jobs(n int) slog.Attr             { return slog.Int(KeyJobs, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
