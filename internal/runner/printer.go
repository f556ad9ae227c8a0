package runner

import (
	"fmt"
	"io"
)

// PrintInvocation writes a trace block describing one subprocess invocation
// and its result.
func PrintInvocation(w io.Writer, config *Config, result *Result) {
	streams := "split"
	if config.MergeStreams {
		streams = "merged"
	}

	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Command: %s\n", FullCommand(config))
	if config.Dir != "" {
		fmt.Fprintf(w, "Dir:     %s\n", config.Dir)
	}
	if config.Timeout > 0 {
		fmt.Fprintf(w, "Timeout: %s\n", config.Timeout)
	}
	fmt.Fprintf(w, "Streams: %s\n", streams)
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "Outcome:        %s\n", result.Outcome)
	fmt.Fprintf(w, "Exit Code:      %d\n", result.ExitCode)
	fmt.Fprintf(w, "Execution Time: %d ms\n", result.ExecutionTime)
	if result.Err != nil {
		fmt.Fprintf(w, "Error:          %v\n", result.Err)
	}
	fmt.Fprintln(w, "========================================")
}
