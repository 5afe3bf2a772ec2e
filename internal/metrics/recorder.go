package metrics

import "time"

// ResultLabel enumerates per-file compilation outcomes for counters.
type ResultLabel string

const (
	ResultSuccess      ResultLabel = "success"
	ResultCompileError ResultLabel = "compile_error"
	ResultIOError      ResultLabel = "io_error"
	ResultCanceled     ResultLabel = "canceled"
)

// BuildOutcomeLabel enumerates whole-build outcomes.
type BuildOutcomeLabel string

const (
	BuildSuccess  BuildOutcomeLabel = "success"
	BuildFailed   BuildOutcomeLabel = "failed"
	BuildCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for compiler runs and builds.
type Recorder interface {
	ObserveCompileDuration(d time.Duration)
	IncCompileResult(result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	SetBuildConcurrency(n int)
	IncWatchRebuild()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCompileDuration(time.Duration) {}
func (NoopRecorder) IncCompileResult(ResultLabel)         {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)   {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)    {}
func (NoopRecorder) SetBuildConcurrency(int)              {}
func (NoopRecorder) IncWatchRebuild()                     {}
