package sass

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/stylebuilder/internal/asset"
	serrors "git.home.luguber.info/inful/stylebuilder/internal/errors"
	"git.home.luguber.info/inful/stylebuilder/internal/metrics"
)

// fakeRunner writes output to the last argument and reports the configured result.
type fakeRunner struct {
	mu       sync.Mutex
	calls    [][]string
	output   []byte
	exitCode int
	stderr   string
	err      error
	block    bool
}

func (r *fakeRunner) Run(ctx context.Context, argv []string) (RunResult, error) {
	r.mu.Lock()
	r.calls = append(r.calls, slices.Clone(argv))
	r.mu.Unlock()

	if r.block {
		<-ctx.Done()
		return RunResult{ExitCode: -1}, ctx.Err()
	}
	if r.err != nil {
		return RunResult{}, r.err
	}
	if r.exitCode == 0 && r.output != nil {
		if err := os.WriteFile(argv[len(argv)-1], r.output, 0o600); err != nil {
			return RunResult{}, err
		}
	}
	return RunResult{ExitCode: r.exitCode, Stderr: []byte(r.stderr)}, nil
}

func (r *fakeRunner) lastCall(t *testing.T) []string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.calls)
	return r.calls[len(r.calls)-1]
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	results map[metrics.ResultLabel]int
}

func (c *countingRecorder) IncCompileResult(r metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = map[metrics.ResultLabel]int{}
	}
	c.results[r]++
}

func writeSource(t *testing.T, rel, body string) (root string) {
	t.Helper()
	root = t.TempDir()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o600))
	return root
}

func newFilter(t *testing.T, opts Options, r Runner, extra ...Option) *Filter {
	t.Helper()
	all := append([]Option{WithRunner(r), WithTempDir(t.TempDir())}, extra...)
	f, err := New(opts, all...)
	require.NoError(t, err)
	return f
}

func indexOf(args []string, v string) int {
	return slices.Index(args, v)
}

func TestArgs_ImplicitLoadPathIsSourceDir(t *testing.T) {
	root := writeSource(t, "theme/partials/app.scss", "a{}")
	f := newFilter(t, Options{CompilerPath: "sass"}, &fakeRunner{})

	args, err := f.Args(asset.NewFileAsset(root, "theme/partials/app.scss"), "/tmp/out")
	require.NoError(t, err)

	require.Equal(t, "sass", args[0])
	require.Equal(t, "--load-path", args[1])
	assert.Equal(t, filepath.Join(root, "theme", "partials"), args[2])
	assert.Equal(t, filepath.Join(root, "theme", "partials", "app.scss"), args[len(args)-2])
	assert.Equal(t, "/tmp/out", args[len(args)-1])
}

func TestArgs_RequiresSourceLocation(t *testing.T) {
	f := newFilter(t, Options{CompilerPath: "sass"}, &fakeRunner{})
	for _, a := range []*asset.FileAsset{
		asset.NewFileAsset("", "app.scss"),
		asset.NewFileAsset("/src", ""),
	} {
		args, err := f.Args(a, "/tmp/out")
		require.ErrorIs(t, err, ErrNoSourceLocation)
		assert.Nil(t, args)
	}
}

func TestArgs_CacheLocationDefaultsToTempDir(t *testing.T) {
	f := newFilter(t, Options{CompilerPath: "sass"}, &fakeRunner{})
	args, err := f.Args(asset.NewFileAsset("/src", "app.scss"), "/tmp/out")
	require.NoError(t, err)

	i := indexOf(args, "--cache-location")
	require.Positive(t, i, "missing --cache-location in %v", args)
	assert.Equal(t, os.TempDir(), args[i+1])
	assert.Equal(t, os.TempDir(), f.Options().CacheLocation)
}

func TestArgs_SyntaxInference(t *testing.T) {
	tests := []struct {
		name   string
		syntax Syntax
		path   string
		want   bool
	}{
		{"auto scss extension", SyntaxAuto, "app.scss", true},
		{"auto sass extension", SyntaxAuto, "app.sass", false},
		{"auto uppercase extension is not scss", SyntaxAuto, "app.SCSS", false},
		{"auto no extension", SyntaxAuto, "app", false},
		{"forced scss on sass file", SyntaxSCSS, "app.sass", true},
		{"forced plain on scss file", SyntaxSass, "app.scss", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFilter(t, Options{CompilerPath: "sass", Syntax: tt.syntax}, &fakeRunner{})
			args, err := f.Args(asset.NewFileAsset("/src", tt.path), "/tmp/out")
			require.NoError(t, err)
			assert.Equal(t, tt.want, slices.Contains(args, "--scss"))
		})
	}
}

func TestArgs_LoadPathsKeepInsertionOrderAfterImplicit(t *testing.T) {
	f := newFilter(t, Options{CompilerPath: "sass", LoadPaths: []string{"vendor/z", "vendor/a", "lib"}}, &fakeRunner{})
	args, err := f.Args(asset.NewFileAsset("/src", "styles/app.scss"), "/tmp/out")
	require.NoError(t, err)

	var loadPaths []string
	for i, a := range args {
		if a == "--load-path" {
			loadPaths = append(loadPaths, args[i+1])
		}
	}
	assert.Equal(t, []string{filepath.Join("/src", "styles"), "vendor/z", "vendor/a", "lib"}, loadPaths)
}

func TestArgs_FullFlagOrder(t *testing.T) {
	opts := Options{
		CompilerPath:  "/opt/sass",
		UnixNewlines:  true,
		Syntax:        SyntaxSCSS,
		Style:         StyleExpanded,
		Quiet:         true,
		DebugInfo:     true,
		LineNumbers:   true,
		LoadPaths:     []string{"lib"},
		CacheLocation: "/var/cache/sass",
		NoCache:       true,
		Compass:       true,
	}
	f := newFilter(t, opts, &fakeRunner{})
	args, err := f.Args(asset.NewFileAsset("/src", "app.sass"), "/tmp/out")
	require.NoError(t, err)

	want := []string{
		"/opt/sass",
		"--load-path", "/src",
		"--unix-newlines",
		"--scss",
		"--style", "expanded",
		"--quiet",
		"--debug-info",
		"--line-numbers",
		"--load-path", "lib",
		"--cache-location", "/var/cache/sass",
		"--no-cache",
		"--compass",
		"/src/app.sass",
		"/tmp/out",
	}
	assert.Equal(t, want, args)
}

func TestArgs_CompressedQuietScssExample(t *testing.T) {
	root := writeSource(t, "app.scss", "a{}")
	f := newFilter(t, Options{CompilerPath: "sass", Style: StyleCompressed, Quiet: true}, &fakeRunner{})
	inv, err := f.Prepare(asset.NewFileAsset(root, "app.scss"))
	require.NoError(t, err)
	defer os.Remove(inv.Output)

	args := inv.Args
	scss, style, quiet := indexOf(args, "--scss"), indexOf(args, "--style"), indexOf(args, "--quiet")
	require.True(t, scss > 0 && style > scss && quiet > style, "flags out of order: %v", args)
	assert.Equal(t, "compressed", args[style+1])
	assert.Equal(t, filepath.Join(root, "app.scss"), args[len(args)-2])
	assert.Equal(t, inv.Output, args[len(args)-1])
	assert.True(t, quiet < len(args)-2)
	assert.NotEmpty(t, inv.ID)
}

func TestPrepare_UniqueOutputs(t *testing.T) {
	root := writeSource(t, "app.scss", "a{}")
	f := newFilter(t, Options{CompilerPath: "sass"}, &fakeRunner{})
	a := asset.NewFileAsset(root, "app.scss")

	one, err := f.Prepare(a)
	require.NoError(t, err)
	two, err := f.Prepare(a)
	require.NoError(t, err)
	defer os.Remove(one.Output)
	defer os.Remove(two.Output)

	assert.NotEqual(t, one.Output, two.Output)
	assert.NotEqual(t, one.ID, two.ID)
}

func TestPrepare_RequiresSourceLocation(t *testing.T) {
	f := newFilter(t, Options{CompilerPath: "sass"}, &fakeRunner{})
	_, err := f.Prepare(asset.NewFileAsset("", "app.scss"))
	require.ErrorIs(t, err, ErrNoSourceLocation)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryFileSystem))
}

func TestLoad_SuccessReplacesContentAndRemovesOutput(t *testing.T) {
	root := writeSource(t, "app.scss", "$c: red; a { color: $c; }")
	runner := &fakeRunner{output: []byte("a {\n  color: red; }\n")}
	rec := &countingRecorder{}
	f := newFilter(t, Options{CompilerPath: "sass"}, runner, WithRecorder(rec))

	a := asset.NewFileAsset(root, "app.scss")
	a.SetContent([]byte("stale in-memory content"))
	require.NoError(t, f.Load(context.Background(), a))

	assert.Equal(t, "a {\n  color: red; }\n", string(a.Content()))
	out := runner.lastCall(t)[len(runner.lastCall(t))-1]
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "temp output should be removed")
	assert.Equal(t, 1, rec.results[metrics.ResultSuccess])
}

func TestLoad_ReadsFromDiskNotMemory(t *testing.T) {
	root := writeSource(t, "app.scss", "a{}")
	runner := &fakeRunner{output: []byte("a{}")}
	f := newFilter(t, Options{CompilerPath: "sass"}, runner)

	a := asset.NewFileAsset(root, "app.scss")
	a.SetContent([]byte("edited in memory"))
	require.NoError(t, f.Load(context.Background(), a))

	args := runner.lastCall(t)
	assert.Equal(t, filepath.Join(root, "app.scss"), args[len(args)-2])
}

func TestLoad_NonZeroExitIsCompilationError(t *testing.T) {
	root := writeSource(t, "app.scss", "a {")
	stderr := "Error: Invalid CSS after \"a {\": expected \"}\", was \"\"\n        on line 1 of app.scss\n"
	runner := &fakeRunner{exitCode: 65, stderr: stderr}
	rec := &countingRecorder{}
	f := newFilter(t, Options{CompilerPath: "sass"}, runner, WithRecorder(rec))

	a := asset.NewFileAsset(root, "app.scss")
	a.SetContent([]byte("previous"))
	err := f.Load(context.Background(), a)
	require.Error(t, err)

	se, ok := serrors.As(err)
	require.True(t, ok)
	assert.Equal(t, serrors.CategoryCompilation, se.Category)
	assert.Equal(t, stderr, se.Message)
	assert.Equal(t, 65, se.Context["exit_code"])

	assert.Equal(t, "previous", string(a.Content()), "content must be untouched on failure")
	_, statErr := os.Stat(filepath.Join(root, "app.scss"))
	assert.NoError(t, statErr, "source file must survive a failed compile")

	args := runner.lastCall(t)
	_, statErr = os.Stat(args[len(args)-1])
	assert.True(t, os.IsNotExist(statErr), "temp output should be removed on failure")
	assert.Equal(t, 1, rec.results[metrics.ResultCompileError])
}

func TestLoad_LaunchFailureIsCompilationError(t *testing.T) {
	root := writeSource(t, "app.scss", "a{}")
	runner := &fakeRunner{err: errors.New("exec: \"sass\": executable file not found in $PATH")}
	f := newFilter(t, Options{CompilerPath: "sass"}, runner)

	err := f.Load(context.Background(), asset.NewFileAsset(root, "app.scss"))
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryCompilation))
	assert.ErrorIs(t, err, runner.err)
}

func TestLoad_UnreadableOutputIsIOError(t *testing.T) {
	root := writeSource(t, "app.scss", "a{}")
	f := newFilter(t, Options{CompilerPath: "sass"}, runnerFunc(func(_ context.Context, argv []string) (RunResult, error) {
		// compiler "succeeds" but its output vanished
		return RunResult{}, os.Remove(argv[len(argv)-1])
	}))

	a := asset.NewFileAsset(root, "app.scss")
	a.SetContent([]byte("previous"))
	err := f.Load(context.Background(), a)
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryFileSystem))
	assert.Equal(t, "previous", string(a.Content()))
}

func TestLoad_TimeoutInterruptsCompiler(t *testing.T) {
	root := writeSource(t, "app.scss", "a{}")
	f := newFilter(t, Options{CompilerPath: "sass", Timeout: 20 * time.Millisecond}, &fakeRunner{block: true})

	err := f.Load(context.Background(), asset.NewFileAsset(root, "app.scss"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryCompilation))
}

func TestLoad_ConcurrentCallsUseDistinctOutputs(t *testing.T) {
	root := writeSource(t, "app.scss", "a{}")
	runner := &fakeRunner{output: []byte("a{}")}
	f := newFilter(t, Options{CompilerPath: "sass"}, runner)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.Load(context.Background(), asset.NewFileAsset(root, "app.scss")))
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, c := range runner.calls {
		out := c[len(c)-1]
		assert.False(t, seen[out], "output path reused: %s", out)
		seen[out] = true
	}
	assert.Len(t, seen, 8)
}

func TestDump_LeavesContentUnchanged(t *testing.T) {
	runner := &fakeRunner{}
	f := newFilter(t, Options{CompilerPath: "sass"}, runner)
	a := asset.NewFileAsset("/src", "app.scss")
	a.SetContent([]byte("body{}"))

	require.NoError(t, f.Dump(context.Background(), a))
	assert.Equal(t, "body{}", string(a.Content()))
	assert.Empty(t, runner.calls)
}

func TestNew_RejectsUnknownStyle(t *testing.T) {
	_, err := New(Options{Style: Style("loud")})
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryConfig))
}

func TestNew_CopiesOptions(t *testing.T) {
	paths := []string{"a"}
	f, err := New(Options{LoadPaths: paths})
	require.NoError(t, err)
	paths[0] = "mutated"

	assert.Equal(t, []string{"a"}, f.Options().LoadPaths)
	assert.Equal(t, DefaultCompilerPath, f.Options().CompilerPath)
}

type runnerFunc func(ctx context.Context, argv []string) (RunResult, error)

func (f runnerFunc) Run(ctx context.Context, argv []string) (RunResult, error) { return f(ctx, argv) }
