package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/sntest/cmd/helpers"
)

var rootCmd = &cobra.Command{
	Use:   "sntest",
	Short: "Conformance test harness for the sn compiler",
	Long: `sntest discovers sn test programs, compiles each one with the sn compiler,
runs the resulting binary and checks its behavior against recorded expectations:
exact output, an expected compile error, or an expected runtime panic.

Exit codes: 0 when every suite passes, 1 on any failure, 2 on usage errors.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the mapped exit code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if helpers.ShouldPrint(err) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	if code := helpers.ExitCode(err); code != helpers.ExitOK {
		os.Exit(code)
	}
}

func init() {
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return helpers.UsageError(err)
	})

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(historyCmd)
}
