package helpers

import (
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/zinc-sig/sntest/cmd/config"
	"github.com/zinc-sig/sntest/internal/harness"
	"github.com/zinc-sig/sntest/internal/runner"
	"github.com/zinc-sig/sntest/internal/settings"
)

// BuildExclusions merges every exclusion source: SN_EXCLUDE_TESTS, the
// project file, --exclude and --skip-file.
func BuildExclusions(sel *config.SelectionFlags, project *settings.Project, env runner.Env) (harness.Exclusions, error) {
	excluded := harness.NewExclusions()

	if value, ok := env.Lookup(harness.ExcludeEnvVar); ok {
		excluded.Add(harness.ParseEnvList(value)...)
	}
	excluded.Add(project.Exclude...)
	excluded.Add(harness.ParseFlagList(sel.Exclude)...)

	if sel.SkipFile != "" {
		names, err := harness.LoadSkipFile(sel.SkipFile)
		if err != nil {
			return nil, err
		}
		excluded.Add(names...)
	}
	return excluded, nil
}

// BuildOptions resolves harness options. Flags win over the project file,
// which wins over built-in defaults. The compiler must exist.
func BuildOptions(sel *config.SelectionFlags, flags *config.RunFlags, project *settings.Project, environ []string) (harness.Options, error) {
	env := harness.DefaultEnvironment(environ)

	compiler := flags.Compiler
	if compiler == "" && project.Compiler != "" {
		compiler = project.Compiler
		if !filepath.IsAbs(compiler) {
			compiler = filepath.Join(sel.Root, compiler)
		}
	}
	compiler, err := harness.FindCompiler(sel.Root, compiler, runtime.GOOS)
	if err != nil {
		return harness.Options{}, err
	}

	excluded, err := BuildExclusions(sel, project, env)
	if err != nil {
		return harness.Options{}, err
	}

	opts := harness.Options{
		Root:           sel.Root,
		Compiler:       compiler,
		CompileTimeout: firstPositive(flags.CompileTimeout, project.CompileTimeout.Std()),
		RunTimeout:     firstPositive(flags.RunTimeout, project.RunTimeout.Std()),
		Excluded:       excluded,
		Verbose:        flags.Verbose,
		Env:            env,
		Jobs:           flags.Jobs,
		GOOS:           runtime.GOOS,
	}
	if opts.Jobs == 0 {
		opts.Jobs = project.Jobs
	}
	return opts, nil
}

// AttachLogging wires the logger, and the invocation trace when enabled.
func AttachLogging(opts *harness.Options, logger *slog.Logger, trace bool, w io.Writer) {
	opts.Logger = logger
	if trace {
		opts.Trace = w
	}
}

func firstPositive(values ...time.Duration) time.Duration {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
