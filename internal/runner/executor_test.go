package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func skipOnWindows(t testing.TB) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func createScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("failed to create script: %v", err)
	}
	return path
}

func TestExecute(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		name         string
		setupConfig  func(t *testing.T, tmpDir string) *Config
		wantOutcome  Outcome
		wantExitCode int
		wantStdout   string
		wantStderr   string
		errContains  string
	}{
		{
			name: "successful echo command",
			setupConfig: func(t *testing.T, tmpDir string) *Config {
				return &Config{Command: "echo", Args: []string{"hello world"}}
			},
			wantOutcome:  OutcomeCompleted,
			wantExitCode: 0,
			wantStdout:   "hello world\n",
		},
		{
			name: "command with non-zero exit code",
			setupConfig: func(t *testing.T, tmpDir string) *Config {
				return &Config{Command: "sh", Args: []string{"-c", "exit 42"}}
			},
			wantOutcome:  OutcomeCompleted,
			wantExitCode: 42,
		},
		{
			name: "stderr captured separately",
			setupConfig: func(t *testing.T, tmpDir string) *Config {
				return &Config{Command: "sh", Args: []string{"-c", "echo out && echo 'error message' >&2"}}
			},
			wantOutcome: OutcomeCompleted,
			wantStdout:  "out\n",
			wantStderr:  "error message\n",
		},
		{
			name: "merged streams share one buffer",
			setupConfig: func(t *testing.T, tmpDir string) *Config {
				return &Config{
					Command:      "sh",
					Args:         []string{"-c", "echo out && echo err >&2"},
					MergeStreams: true,
				}
			},
			wantOutcome: OutcomeCompleted,
			wantStdout:  "out\nerr\n",
			wantStderr:  "",
		},
		{
			name: "command with multiple arguments",
			setupConfig: func(t *testing.T, tmpDir string) *Config {
				return &Config{Command: "sh", Args: []string{"-c", "echo $1 $2 $3", "sh", "arg1", "arg2", "arg3"}}
			},
			wantOutcome: OutcomeCompleted,
			wantStdout:  "arg1 arg2 arg3\n",
		},
		{
			name: "working directory is honored",
			setupConfig: func(t *testing.T, tmpDir string) *Config {
				return &Config{Command: "sh", Args: []string{"-c", "ls"}, Dir: tmpDir}
			},
			wantOutcome: OutcomeCompleted,
			wantStdout:  "",
		},
		{
			name: "killed by signal reports 128 plus signal",
			setupConfig: func(t *testing.T, tmpDir string) *Config {
				return &Config{Command: "sh", Args: []string{"-c", "kill -ABRT $$"}}
			},
			wantOutcome:  OutcomeCompleted,
			wantExitCode: 134,
		},
		{
			name: "false command returns exit code 1",
			setupConfig: func(t *testing.T, tmpDir string) *Config {
				return &Config{Command: "false"}
			},
			wantOutcome:  OutcomeCompleted,
			wantExitCode: 1,
		},
		{
			name: "non-existent command",
			setupConfig: func(t *testing.T, tmpDir string) *Config {
				return &Config{Command: "nonexistentcommand12345"}
			},
			wantOutcome:  OutcomeLaunchFailed,
			wantExitCode: ExitCodeNotRun,
			errContains:  "failed to start command",
		},
		{
			name: "file without execute permission",
			setupConfig: func(t *testing.T, tmpDir string) *Config {
				path := filepath.Join(tmpDir, "plain")
				if err := os.WriteFile(path, []byte("#!/bin/sh\necho hi\n"), 0644); err != nil {
					t.Fatal(err)
				}
				return &Config{Command: path}
			},
			wantOutcome:  OutcomeLaunchFailed,
			wantExitCode: ExitCodeNotRun,
			errContains:  "failed to start command",
		},
		{
			name: "script artifact",
			setupConfig: func(t *testing.T, tmpDir string) *Config {
				return &Config{Command: createScript(t, tmpDir, "prog", "echo 3")}
			},
			wantOutcome: OutcomeCompleted,
			wantStdout:  "3\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			config := tt.setupConfig(t, tmpDir)

			result := Execute(context.Background(), config)

			if result.Outcome != tt.wantOutcome {
				t.Fatalf("outcome = %s, want %s (err: %v)", result.Outcome, tt.wantOutcome, result.Err)
			}
			if result.ExitCode != tt.wantExitCode {
				t.Errorf("exit code = %d, want %d", result.ExitCode, tt.wantExitCode)
			}
			if tt.errContains != "" {
				if result.Err == nil {
					t.Fatalf("expected error but got none")
				}
				if !strings.Contains(result.Err.Error(), tt.errContains) {
					t.Errorf("error = %v, want error containing %q", result.Err, tt.errContains)
				}
				if result.Stderr == "" {
					t.Errorf("launch error text missing from stderr")
				}
				return
			}
			if result.Err != nil {
				t.Errorf("unexpected error: %v", result.Err)
			}
			if result.Stdout != tt.wantStdout {
				t.Errorf("stdout = %q, want %q", result.Stdout, tt.wantStdout)
			}
			if result.Stderr != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", result.Stderr, tt.wantStderr)
			}
			if result.ExecutionTime < 0 {
				t.Errorf("execution time should be non-negative, got %d ms", result.ExecutionTime)
			}
		})
	}
}

func TestExecuteWithTimeout(t *testing.T) {
	skipOnWindows(t)

	tests := []struct {
		name         string
		config       *Config
		wantOutcome  Outcome
		wantExitCode int
		maxDuration  time.Duration
	}{
		{
			name:         "command completes before timeout",
			config:       &Config{Command: "sleep", Args: []string{"0.1"}, Timeout: 2 * time.Second},
			wantOutcome:  OutcomeCompleted,
			wantExitCode: 0,
			maxDuration:  1500 * time.Millisecond,
		},
		{
			name:         "command times out",
			config:       &Config{Command: "sleep", Args: []string{"5"}, Timeout: 100 * time.Millisecond},
			wantOutcome:  OutcomeTimedOut,
			wantExitCode: ExitCodeNotRun,
			maxDuration:  3 * time.Second,
		},
		{
			name: "child processes are killed with the group",
			config: &Config{
				Command: "sh",
				Args:    []string{"-c", "sleep 5 & sleep 5; wait"},
				Timeout: 100 * time.Millisecond,
			},
			wantOutcome:  OutcomeTimedOut,
			wantExitCode: ExitCodeNotRun,
			maxDuration:  3 * time.Second,
		},
		{
			name:         "command with error and timeout",
			config:       &Config{Command: "sh", Args: []string{"-c", "exit 42"}, Timeout: time.Second},
			wantOutcome:  OutcomeCompleted,
			wantExitCode: 42,
			maxDuration:  time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			result := Execute(context.Background(), tt.config)
			elapsed := time.Since(start)

			if result.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %v, want %v", result.Outcome, tt.wantOutcome)
			}
			if result.ExitCode != tt.wantExitCode {
				t.Errorf("ExitCode = %v, want %v", result.ExitCode, tt.wantExitCode)
			}
			if elapsed > tt.maxDuration {
				t.Errorf("took %v, want at most %v", elapsed, tt.maxDuration)
			}
			if tt.wantOutcome == OutcomeTimedOut {
				if !result.TimedOut {
					t.Error("TimedOut = false, want true")
				}
				if result.Stderr != TimeoutMarker {
					t.Errorf("Stderr = %q, want %q", result.Stderr, TimeoutMarker)
				}
				if result.Stdout != "" {
					t.Errorf("Stdout = %q, want output discarded", result.Stdout)
				}
			}
		})
	}
}

func TestExecuteParentCancellation(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	result := Execute(ctx, &Config{Command: "sleep", Args: []string{"5"}, Timeout: 10 * time.Second})

	if result.Outcome != OutcomeLaunchFailed {
		t.Errorf("Outcome = %v, want %v", result.Outcome, OutcomeLaunchFailed)
	}
	if result.TimedOut {
		t.Error("parent cancellation must not be reported as a timeout")
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "interrupted") {
		t.Errorf("Err = %v, want interrupted error", result.Err)
	}
}

func TestTermination(t *testing.T) {
	tests := []struct {
		name      string
		killed    bool
		parentErr error
		runErr    error
		want      Outcome
	}{
		{"exited before the deadline was observed", false, nil, context.DeadlineExceeded, ""},
		{"exited before cancellation was observed", false, context.Canceled, context.Canceled, ""},
		{"killed on deadline", true, nil, context.DeadlineExceeded, OutcomeTimedOut},
		{"killed on cancellation", true, context.Canceled, context.Canceled, OutcomeLaunchFailed},
		{"cancellation wins over deadline", true, context.Canceled, context.DeadlineExceeded, OutcomeLaunchFailed},
		{"not killed", false, nil, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := termination(tt.killed, tt.parentErr, tt.runErr); got != tt.want {
				t.Errorf("termination() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecuteAlreadyCancelled(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := Execute(ctx, &Config{Command: "echo", Args: []string{"hi"}, Timeout: time.Second})
	if result.Outcome != OutcomeLaunchFailed {
		t.Errorf("Outcome = %v, want %v", result.Outcome, OutcomeLaunchFailed)
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "interrupted") {
		t.Errorf("Err = %v, want interrupted error", result.Err)
	}
}

func TestExecuteEnvironment(t *testing.T) {
	skipOnWindows(t)

	env := BuildEnv([]string{"PATH=" + os.Getenv("PATH"), "KEEP=me"}, map[string]string{"ADDED": "yes"})
	result := Execute(context.Background(), &Config{
		Command: "sh",
		Args:    []string{"-c", "echo $KEEP $ADDED $HOME"},
		Env:     env,
	})

	if result.Outcome != OutcomeCompleted {
		t.Fatalf("Outcome = %v, err = %v", result.Outcome, result.Err)
	}
	if result.Stdout != "me yes\n" {
		t.Errorf("stdout = %q, want %q", result.Stdout, "me yes\n")
	}
}

func TestExecutionTime(t *testing.T) {
	skipOnWindows(t)

	start := time.Now()
	result := Execute(context.Background(), &Config{Command: "sh", Args: []string{"-c", "sleep 0.2"}})
	elapsed := time.Since(start).Milliseconds()

	if result.ExecutionTime < 200 {
		t.Errorf("execution time too short: %d ms, expected at least 200 ms", result.ExecutionTime)
	}
	if result.ExecutionTime > elapsed {
		t.Errorf("execution time %d ms exceeds elapsed time %d ms", result.ExecutionTime, elapsed)
	}
}

func TestLargeOutput(t *testing.T) {
	skipOnWindows(t)

	largeText := strings.Repeat("Hello World\n", 10000)
	result := Execute(context.Background(), &Config{
		Command: "sh",
		Args:    []string{"-c", "for i in $(seq 1 10000); do echo 'Hello World'; done"},
	})

	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode)
	}
	if len(result.Stdout) != len(largeText) {
		t.Errorf("output size mismatch: got %d bytes, want %d bytes", len(result.Stdout), len(largeText))
	}
}

func TestPrintInvocation(t *testing.T) {
	var buf bytes.Buffer
	config := &Config{Command: "sn", Args: []string{"add.sn", "-o", "add"}, Timeout: 10 * time.Second}
	result := &Result{Outcome: OutcomeCompleted, ExitCode: 0, ExecutionTime: 12}

	PrintInvocation(&buf, config, result)

	out := buf.String()
	for _, want := range []string{
		"Command: sn add.sn -o add",
		"Timeout: 10s",
		"Streams: split",
		"Outcome:        completed",
		"Execution Time: 12 ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("trace output missing %q:\n%s", want, out)
		}
	}
}

func BenchmarkExecute(b *testing.B) {
	skipOnWindows(b)

	config := &Config{Command: "echo", Args: []string{"benchmark"}}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result := Execute(context.Background(), config)
		if result.ExitCode != 0 {
			b.Fatalf("exit code %d", result.ExitCode)
		}
	}
}
