package harness

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zinc-sig/sntest/internal/runner"
)

// fakeCompiler copies a shell-script "source" to the -o path, or fails with
// the message from a "#compile-error: " line.
const fakeCompiler = `#!/bin/sh
src="$1"
out="$3"
msg=$(sed -n 's/^#compile-error: //p' "$src")
if [ -n "$msg" ]; then
  echo "$src:1:1: $msg" >&2
  echo "compilation aborted" >&2
  exit 1
fi
cp "$src" "$out" && chmod +x "$out"
`

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler requires a POSIX shell")
	}
}

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
}

// newRepo lays out a repository root with a fake compiler in bin/.
func newRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bin", "sn"), fakeCompiler, 0o755)
	return root
}

func newOptions(t *testing.T, root string) Options {
	t.Helper()
	ws, err := NewWorkspace()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	compiler, err := FindCompiler(root, "", runtime.GOOS)
	require.NoError(t, err)

	return Options{
		Root:      root,
		Compiler:  compiler,
		Env:       DefaultEnvironment(os.Environ()),
		Workspace: ws,
		Verbose:   true,
	}
}

// recordingObserver keeps every notification in arrival order.
type recordingObserver struct {
	mu       sync.Mutex
	started  []Kind
	cases    []string
	finished []SuiteSummary
}

func (r *recordingObserver) SuiteStarted(suite SuiteConfig, cases []TestCase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, suite.Kind)
}

func (r *recordingObserver) CaseFinished(suite SuiteConfig, result CaseResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cases = append(r.cases, result.Case.Name)
}

func (r *recordingObserver) SuiteFinished(summary SuiteSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, summary)
}

// stubExecutor answers every invocation from a function and counts calls.
type stubExecutor struct {
	mu    sync.Mutex
	calls []*runner.Config
	fn    func(config *runner.Config) *runner.Result
}

func (s *stubExecutor) Execute(ctx context.Context, config *runner.Config) *runner.Result {
	s.mu.Lock()
	s.calls = append(s.calls, config)
	s.mu.Unlock()
	return s.fn(config)
}

func (s *stubExecutor) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
