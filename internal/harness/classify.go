package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/zinc-sig/sntest/internal/expect"
	"github.com/zinc-sig/sntest/internal/runner"
)

// Executor runs one subprocess. runner.Execute is the production
// implementation; tests substitute their own.
type Executor interface {
	Execute(ctx context.Context, config *runner.Config) *runner.Result
}

type ExecutorFunc func(ctx context.Context, config *runner.Config) *runner.Result

func (f ExecutorFunc) Execute(ctx context.Context, config *runner.Config) *runner.Result {
	return f(ctx, config)
}

// Classifier applies the per-case protocols.
type Classifier struct {
	opts    Options
	traceMu sync.Mutex
}

func NewClassifier(opts Options) *Classifier {
	return &Classifier{opts: opts.withDefaults()}
}

// Classify produces the verdict for one case. It never returns an error:
// every failure mode maps to a Fail reason. Exclusions do not apply to the
// unit suite.
func (c *Classifier) Classify(ctx context.Context, suite SuiteConfig, tc TestCase) Verdict {
	if suite.Kind == KindUnit {
		return c.classifyUnit(ctx, suite, tc)
	}
	if c.opts.Excluded.Contains(tc.Name) {
		return Skip(ReasonExcluded)
	}

	switch {
	case tc.ExpectCompileFailure:
		return c.classifyErrorTest(ctx, suite, tc)
	default:
		return c.classifyPositiveTest(ctx, suite, tc)
	}
}

func (c *Classifier) classifyErrorTest(ctx context.Context, suite SuiteConfig, tc TestCase) Verdict {
	if tc.ExpectedFile == "" {
		return Skip(ReasonNoExpectation)
	}

	out, err := c.opts.Workspace.ArtifactPath(suite.Kind, tc.Name, c.opts.GOOS)
	if err != nil {
		return c.failWithError(ReasonCompileError, err)
	}

	compile := c.execute(ctx, &runner.Config{
		Command: c.opts.Compiler,
		Args:    []string{tc.Source, "-o", out, "-l", "1"},
		Env:     c.opts.Env,
		Timeout: c.opts.CompileTimeout,
	})
	if v, ok := c.interrupted(ctx, compile); ok {
		return v
	}

	if compile.Outcome == runner.OutcomeCompleted && compile.ExitCode == 0 {
		return Fail(ReasonUnexpectedCompileSuccess)
	}

	expected, err := expect.ReadFile(tc.ExpectedFile)
	if err != nil {
		return c.failWithError(ReasonWrongErrorMessage, err)
	}

	if expect.MatchesError(expected, compile.Stderr) {
		return Pass()
	}

	v := Fail(ReasonWrongErrorMessage)
	v.Expected = expect.ErrorLine(expected)
	v.Actual = expect.FirstLineOrPlaceholder(compile.Stderr)
	v.Lines = c.diagnostics(compile.Stderr)
	return v
}

func (c *Classifier) classifyPositiveTest(ctx context.Context, suite SuiteConfig, tc TestCase) Verdict {
	if tc.ExpectedFile == "" && !suite.ExpectationOptional {
		return Skip(ReasonNoExpectation)
	}

	out, err := c.opts.Workspace.ArtifactPath(suite.Kind, tc.Name, c.opts.GOOS)
	if err != nil {
		return c.failWithError(ReasonCompileError, err)
	}

	args := []string{tc.Source, "-o", out, "-l", "1", "-O0"}
	if c.opts.GOOS != "windows" {
		args = append(args, "-g")
	}

	compile := c.execute(ctx, &runner.Config{
		Command: c.opts.Compiler,
		Args:    args,
		Env:     c.opts.Env,
		Timeout: c.opts.CompileTimeout,
	})
	if v, ok := c.interrupted(ctx, compile); ok {
		return v
	}
	if !compile.Succeeded() {
		v := Fail(ReasonCompileError)
		v.Lines = c.diagnostics(compile.Stderr)
		if compile.Err != nil {
			v.Err = compile.Err.Error()
		}
		return v
	}

	run := c.execute(ctx, &runner.Config{
		Command:      out,
		Env:          c.opts.Env,
		Timeout:      c.runTimeout(suite),
		MergeStreams: true,
	})

	switch run.Outcome {
	case runner.OutcomeLaunchFailed:
		return c.failWithError(ReasonLaunchError, run.Err)
	case runner.OutcomeTimedOut:
		return Fail(ReasonTimeout)
	}

	if tc.PanicFile != "" {
		if run.ExitCode == 0 {
			return Fail(ReasonPanicDidNotOccur)
		}
		if tc.ExpectedFile == "" {
			return Pass()
		}
	} else if run.ExitCode != 0 {
		v := Fail(ReasonNonzeroExit)
		v.ExitCode = run.ExitCode
		v.Lines = c.diagnostics(run.Stdout)
		return v
	}

	if tc.ExpectedFile == "" {
		return Pass()
	}

	expected, err := expect.ReadFile(tc.ExpectedFile)
	if err != nil {
		return c.failWithError(ReasonOutputMismatch, err)
	}
	if expect.Equal(expected, run.Stdout) {
		return Pass()
	}

	v := Fail(ReasonOutputMismatch)
	v.Expected = expect.FirstLine(expected)
	v.Actual = expect.FirstLine(run.Stdout)
	return v
}

// classifyUnit runs the prebuilt unit-test binary.
func (c *Classifier) classifyUnit(ctx context.Context, suite SuiteConfig, tc TestCase) Verdict {
	if _, err := os.Stat(tc.Source); err != nil {
		return c.failWithError(ReasonLaunchError, fmt.Errorf("unit test binary not found: %s", tc.Source))
	}

	run := c.execute(ctx, &runner.Config{
		Command:      tc.Source,
		Env:          c.opts.Env,
		Timeout:      c.runTimeout(suite),
		MergeStreams: true,
	})

	switch {
	case run.Outcome == runner.OutcomeLaunchFailed:
		return c.failWithError(ReasonLaunchError, run.Err)
	case run.Outcome == runner.OutcomeTimedOut:
		return Fail(ReasonTimeout)
	case run.ExitCode != 0:
		v := Fail(ReasonNonzeroExit)
		v.ExitCode = run.ExitCode
		// the unit runner prints its summary last
		if c.opts.Verbose {
			v.Lines = expect.TailLines(run.Stdout, DiagnosticLines)
		}
		return v
	}
	return Pass()
}

func (c *Classifier) execute(ctx context.Context, config *runner.Config) *runner.Result {
	result := c.opts.Executor.Execute(ctx, config)

	c.opts.Logger.Debug("subprocess finished",
		slog.String("command", result.Command),
		slog.String("outcome", string(result.Outcome)),
		slog.Int("exit_code", result.ExitCode),
		slog.Duration("elapsed", time.Duration(result.ExecutionTime)*time.Millisecond))

	if c.opts.Trace != nil {
		c.traceMu.Lock()
		runner.PrintInvocation(c.opts.Trace, config, result)
		c.traceMu.Unlock()
	}
	return result
}

func (c *Classifier) runTimeout(suite SuiteConfig) time.Duration {
	if suite.RunTimeout > 0 {
		return suite.RunTimeout
	}
	return c.opts.RunTimeout
}

func (c *Classifier) diagnostics(text string) []string {
	if !c.opts.Verbose {
		return nil
	}
	return expect.HeadLines(text, DiagnosticLines)
}

// interrupted reports a compile that was cut short because the run was
// cancelled.
func (c *Classifier) interrupted(ctx context.Context, compile *runner.Result) (Verdict, bool) {
	if ctx.Err() == nil || compile.Outcome == runner.OutcomeCompleted {
		return Verdict{}, false
	}
	err := compile.Err
	if err == nil {
		err = fmt.Errorf("interrupted: %w", ctx.Err())
	}
	return c.failWithError(ReasonLaunchError, err), true
}

func (c *Classifier) failWithError(reason Reason, err error) Verdict {
	v := Fail(reason)
	if err != nil {
		v.Err = err.Error()
	}
	return v
}
