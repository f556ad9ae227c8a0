package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/zinc-sig/sntest/internal/runner"
)

var ErrCompilerNotFound = errors.New("compiler not found")

const (
	DefaultCompileTimeout = 10 * time.Second
	DefaultRunTimeout     = 30 * time.Second
)

// Leak detection is disabled for compiled programs unless the caller's
// environment already configures the sanitizer.
const (
	SanitizerEnvVar  = "ASAN_OPTIONS"
	SanitizerDefault = "detect_leaks=0"
)

// Options configures a harness run. It is built once and never mutated.
type Options struct {
	// Root is the repository root holding tests/ and bin/.
	Root           string
	Compiler       string
	CompileTimeout time.Duration
	RunTimeout     time.Duration
	Excluded       Exclusions
	Verbose        bool
	Env            runner.Env
	Jobs           int
	GOOS           string

	Workspace *Workspace
	// Executor defaults to runner.Execute.
	Executor Executor
	// Trace receives a block per subprocess invocation when non-nil.
	Trace  io.Writer
	Logger *slog.Logger
}

// DefaultEnvironment is the run environment derived from base, normally
// os.Environ().
func DefaultEnvironment(base []string) runner.Env {
	return runner.BuildEnv(base, map[string]string{SanitizerEnvVar: SanitizerDefault})
}

// withDefaults fills zero fields.
func (o Options) withDefaults() Options {
	if o.CompileTimeout <= 0 {
		o.CompileTimeout = DefaultCompileTimeout
	}
	if o.RunTimeout <= 0 {
		o.RunTimeout = DefaultRunTimeout
	}
	if o.Jobs < 1 {
		o.Jobs = 1
	}
	if o.GOOS == "" {
		o.GOOS = runtime.GOOS
	}
	if o.Excluded == nil {
		o.Excluded = NewExclusions()
	}
	if o.Executor == nil {
		o.Executor = ExecutorFunc(runner.Execute)
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// FindCompiler resolves the compiler path. An explicit path is made
// absolute; otherwise bin/sn under root is used.
func FindCompiler(root, specified, goos string) (string, error) {
	path := specified
	if path == "" {
		path = filepath.Join(root, "bin", "sn"+ExeSuffix(goos))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve compiler path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w at %s", ErrCompilerNotFound, abs)
	}
	return abs, nil
}
