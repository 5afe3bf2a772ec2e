package build

import (
	"time"
)

// Status represents the outcome of a build execution.
type Status string

const (
	// StatusSuccess indicates every discovered stylesheet compiled.
	StatusSuccess Status = "success"

	// StatusFailed indicates at least one stylesheet failed.
	StatusFailed Status = "failed"

	// StatusCanceled indicates the context was canceled before all files ran.
	StatusCanceled Status = "canceled"
)

// IsSuccess returns true if the build completed successfully.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// Result is the outcome for one source file.
type Result struct {
	// Source is the path relative to the source directory.
	Source string
	// Output is the file written, empty when compilation failed.
	Output   string
	Duration time.Duration
	Err      error
	// Skipped is set when the build was canceled before this file started.
	Skipped bool
}

// Failed reports whether this file was attempted and did not produce output.
func (r Result) Failed() bool { return r.Err != nil && !r.Skipped }

// Report summarizes a build run.
type Report struct {
	// BuildID correlates the report with the build's log lines.
	BuildID   string
	Status    Status
	Results   []Result
	Succeeded int
	Failed    int
	Skipped   int

	// ConfigHash is the snapshot of the configuration used for this run.
	ConfigHash string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Total returns the number of discovered sources.
func (r *Report) Total() int { return len(r.Results) }

// Failures returns only the failed results, in source order.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) finish(status Status) {
	r.Status = status
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}
