package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/stylebuilder/internal/config"
	serrors "git.home.luguber.info/inful/stylebuilder/internal/errors"
	"git.home.luguber.info/inful/stylebuilder/internal/metrics"
	"git.home.luguber.info/inful/stylebuilder/internal/sass"
	"git.home.luguber.info/inful/stylebuilder/internal/testutil"
	"git.home.luguber.info/inful/stylebuilder/internal/workspace"
)

// copyRunner stands in for the compiler: it copies the input (second to last
// argument) to the output (last argument), failing sources containing "@error".
type copyRunner struct {
	delay     time.Duration
	active    atomic.Int32
	maxActive atomic.Int32
	calls     atomic.Int32
}

func (r *copyRunner) Run(_ context.Context, argv []string) (sass.RunResult, error) {
	r.calls.Add(1)
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		cur := r.maxActive.Load()
		if n <= cur || r.maxActive.CompareAndSwap(cur, n) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	in, out := argv[len(argv)-2], argv[len(argv)-1]
	data, err := os.ReadFile(in)
	if err != nil {
		return sass.RunResult{}, err
	}
	if bytes.Contains(data, []byte("@error")) {
		return sass.RunResult{ExitCode: 65, Stderr: []byte("Error: " + filepath.Base(in))}, nil
	}
	return sass.RunResult{}, os.WriteFile(out, data, 0o600)
}

type outcomeRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.BuildOutcomeLabel
	jobs     int
}

func (r *outcomeRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *outcomeRecorder) SetBuildConcurrency(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = n
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	testutil.NewFileAssertions(t, root).WriteFile(rel, content)
}

type fixture struct {
	cfg     *config.Config
	src     string
	out     string
	scratch string
	runner  *copyRunner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)

	f := &fixture{
		cfg:     cfg,
		src:     t.TempDir(),
		out:     filepath.Join(t.TempDir(), "css"),
		scratch: t.TempDir(),
		runner:  &copyRunner{},
	}
	cfg.Build.SourceDir = f.src
	cfg.Build.OutputDir = f.out
	cfg.Build.Jobs = 2
	return f
}

func (f *fixture) builder() *Builder {
	return NewBuilder(f.cfg).
		WithRunner(f.runner).
		WithWorkspaceFactory(func() *workspace.Manager { return workspace.NewManager(f.scratch) })
}

func TestBuilder_Run_WritesMirroredOutputs(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.src, "main.scss", "body { color: red; }")
	writeFile(t, f.src, "a/b.scss", ".b { margin: 0; }")
	writeFile(t, f.src, "a/_partial.scss", "$x: 1;")

	report, err := f.builder().Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, report.Status)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, f.cfg.Snapshot(), report.ConfigHash)
	assert.NotEmpty(t, report.BuildID)

	testutil.NewFileAssertions(t, f.out).
		AssertFileContains("a/b.css", ".b { margin: 0; }").
		AssertFileExists("main.css").
		AssertNoFile("a/_partial.css").
		AssertFileCount(".", ".css", 2)
	assert.Equal(t, int32(2), f.runner.calls.Load())
}

func TestBuilder_Run_FailuresDoNotAbortOtherFiles(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.src, "bad.scss", "@error 'nope';")
	writeFile(t, f.src, "good.scss", "p { color: blue; }")
	rec := &outcomeRecorder{}

	report, err := f.builder().WithRecorder(rec).Run(context.Background())
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryBuild))

	assert.Equal(t, StatusFailed, report.Status)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Succeeded)
	assert.FileExists(t, filepath.Join(f.out, "good.css"))
	assert.NoFileExists(t, filepath.Join(f.out, "bad.css"))

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "bad.scss", failures[0].Source)
	assert.Empty(t, failures[0].Output)
	assert.True(t, serrors.IsCategory(failures[0].Err, serrors.CategoryCompilation))
	se, ok := serrors.As(failures[0].Err)
	require.True(t, ok)
	assert.Equal(t, "Error: bad.scss", se.Message)

	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildFailed}, rec.outcomes)
}

func TestBuilder_Run_Minify(t *testing.T) {
	f := newFixture(t)
	f.cfg.Build.Minify = true
	css := "a  {\n  color: red;\n}\n\n/* note */\n"
	writeFile(t, f.src, "site.scss", css)

	_, err := f.builder().Run(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(f.out, "site.css"))
	require.NoError(t, err)
	assert.Less(t, len(got), len(css))
	assert.Contains(t, string(got), "color:red")
	assert.NotContains(t, string(got), "note")
}

func TestBuilder_Run_OverridesOutputDirAndJobs(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.src, "x.sass", "p\n  color: red\n")
	alt := filepath.Join(t.TempDir(), "alt")
	rec := &outcomeRecorder{}

	b := f.builder().WithOutputDir(alt).WithJobs(3).WithRecorder(rec)
	assert.Equal(t, alt, b.OutputDir())

	_, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(alt, "x.css"))
	assert.Equal(t, 3, rec.jobs)
}

func TestBuilder_Run_RespectsJobLimit(t *testing.T) {
	f := newFixture(t)
	f.runner.delay = 20 * time.Millisecond
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		writeFile(t, f.src, name+".scss", name+" {}")
	}

	report, err := f.builder().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, report.Succeeded)
	assert.LessOrEqual(t, f.runner.maxActive.Load(), int32(2))
}

func TestBuilder_Run_NoSources(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.src, "_only_partial.scss", "$x: 1;")

	report, err := f.builder().Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, report.Status)
	assert.Equal(t, 0, report.Total())
	assert.Equal(t, int32(0), f.runner.calls.Load())
}

func TestBuilder_Run_Canceled(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.src, "a.scss", "a {}")
	writeFile(t, f.src, "b.scss", "b {}")
	rec := &outcomeRecorder{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.builder().WithRecorder(rec).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCanceled, report.Status)
	assert.Equal(t, 2, report.Skipped)
	assert.Empty(t, report.Failures())
	assert.Equal(t, int32(0), f.runner.calls.Load())
	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildCanceled}, rec.outcomes)
}

// cancelingRunner cancels the build from inside the first compiler run.
type cancelingRunner struct {
	copyRunner
	cancel context.CancelFunc
}

func (r *cancelingRunner) Run(ctx context.Context, argv []string) (sass.RunResult, error) {
	r.cancel()
	return r.copyRunner.Run(ctx, argv)
}

func TestBuilder_Run_CanceledWhileWaitingForJobSlot(t *testing.T) {
	f := newFixture(t)
	f.cfg.Build.Jobs = 1
	writeFile(t, f.src, "a.scss", "a {}")
	writeFile(t, f.src, "b.scss", "b {}")
	writeFile(t, f.src, "c.scss", "c {}")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &cancelingRunner{cancel: cancel}

	report, err := f.builder().WithRunner(runner).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCanceled, report.Status)
	assert.Equal(t, int32(1), runner.calls.Load())
	assert.Equal(t, 2, report.Skipped)
	for _, res := range report.Failures() {
		assert.Equal(t, "a.scss", res.Source)
	}
}

func TestBuilder_Run_InvalidStyle(t *testing.T) {
	f := newFixture(t)
	f.cfg.Sass.Style = "loud"
	writeFile(t, f.src, "a.scss", "a {}")

	report, err := f.builder().Run(context.Background())
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryConfig))
	assert.Equal(t, StatusFailed, report.Status)
	assert.Equal(t, int32(0), f.runner.calls.Load())
}

func TestBuilder_Run_CleansWorkspace(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.src, "a.scss", "a {}")

	_, err := f.builder().Run(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(f.scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuilder_Run_MissingSourceDir(t *testing.T) {
	f := newFixture(t)
	f.cfg.Build.SourceDir = filepath.Join(f.src, "missing")

	_, err := f.builder().Run(context.Background())
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryFileSystem))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
