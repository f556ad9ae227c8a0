package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"
)

// ExitCodeNotRun is reported when the process did not run to completion.
const ExitCodeNotRun = -1

// TimeoutMarker replaces captured stderr when a process is killed on timeout.
const TimeoutMarker = "TIMEOUT"

// waitDelay bounds how long Wait blocks on output pipes after the process is killed.
const waitDelay = 2 * time.Second

// Outcome is the tri-state result of a single invocation.
type Outcome string

const (
	OutcomeCompleted    Outcome = "completed"
	OutcomeTimedOut     Outcome = "timeout"
	OutcomeLaunchFailed Outcome = "launch_error"
)

type Config struct {
	Command      string
	Args         []string
	Dir          string
	Env          Env
	Timeout      time.Duration
	MergeStreams bool
}

type Result struct {
	Command       string
	Outcome       Outcome
	ExitCode      int
	Stdout        string
	Stderr        string
	TimedOut      bool
	Err           error
	ExecutionTime int64 // milliseconds
}

// Succeeded reports whether the process ran to completion with exit code 0.
func (r *Result) Succeeded() bool {
	return r.Outcome == OutcomeCompleted && r.ExitCode == 0
}

// Execute runs the configured command once and always returns a result.
// Launch failures and timeouts are reported through Outcome, never as an error.
func Execute(ctx context.Context, config *Config) *Result {
	result := &Result{
		Command:  FullCommand(config),
		ExitCode: ExitCodeNotRun,
	}

	runCtx := ctx
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, config.Command, config.Args...)
	cmd.Dir = config.Dir
	if !config.Env.IsZero() {
		cmd.Env = config.Env.List()
	}
	setProcessGroup(cmd)
	var killed atomic.Bool
	cmd.Cancel = func() error {
		killed.Store(true)
		return killProcessGroup(cmd)
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if config.MergeStreams {
		cmd.Stderr = &stdout
	} else {
		cmd.Stderr = &stderr
	}

	startTime := time.Now()
	err := cmd.Run()
	result.ExecutionTime = time.Since(startTime).Milliseconds()

	switch termination(killed.Load(), ctx.Err(), runCtx.Err()) {
	case OutcomeTimedOut:
		result.Outcome = OutcomeTimedOut
		result.TimedOut = true
		result.Stderr = TimeoutMarker
		return result
	case OutcomeLaunchFailed:
		return interrupted(result, ctx.Err())
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitCodeFromState(exitErr.ProcessState)
	case errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil:
		// exited, but a descendant kept the output pipes open
		result.ExitCode = exitCodeFromState(cmd.ProcessState)
	case ctx.Err() != nil:
		// cancelled before the process started
		return interrupted(result, ctx.Err())
	default:
		result.Outcome = OutcomeLaunchFailed
		result.Err = fmt.Errorf("failed to start command: %w", err)
		result.Stderr = err.Error()
		return result
	}

	result.Outcome = OutcomeCompleted
	result.Stdout = stdout.String()
	if !config.MergeStreams {
		result.Stderr = stderr.String()
	}
	return result
}

// termination attributes a killed process to its cause. A process that
// exited on its own keeps its result even when a deadline passed meanwhile.
func termination(killed bool, parentErr, runErr error) Outcome {
	switch {
	case !killed:
		return ""
	case parentErr != nil:
		return OutcomeLaunchFailed
	case errors.Is(runErr, context.DeadlineExceeded):
		return OutcomeTimedOut
	}
	return ""
}

func interrupted(result *Result, cause error) *Result {
	result.Outcome = OutcomeLaunchFailed
	result.Err = fmt.Errorf("interrupted: %w", cause)
	result.Stderr = result.Err.Error()
	return result
}

// FullCommand renders the command line for display.
func FullCommand(config *Config) string {
	if len(config.Args) == 0 {
		return config.Command
	}
	return config.Command + " " + strings.Join(config.Args, " ")
}
