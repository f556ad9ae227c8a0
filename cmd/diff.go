package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/sntest/cmd/config"
	"github.com/zinc-sig/sntest/cmd/helpers"
	"github.com/zinc-sig/sntest/internal/expect"
	"github.com/zinc-sig/sntest/internal/output"
	"github.com/zinc-sig/sntest/internal/report"
)

// Comparison modes of the diff command.
const (
	diffModeOutput = "output"
	diffModeError  = "error"
)

var (
	diffExpectedFile string
	diffActualFile   string
	diffErrorMode    bool
	diffContext      config.ContextConfig
)

var diffCmd = &cobra.Command{
	Use:   "diff -e <expected> -a <actual> [--error]",
	Short: "Compare one output with its expectation",
	Long: `Compare an actual output file with an expectation file the way test cases are
judged, and print the result as JSON. Returns exit code 0 on a match and 1
otherwise.

By default both files are compared in full after normalizing CRLF line endings,
and the first differing line is reported. With --error the first line of the
expectation must appear somewhere in the actual file, as for compile error
tests.`,
	Example: `  sntest diff -e tests/integration/add.expected -a out.txt
  sntest diff -e tests/integration/errors/bad_syntax.expected -a compiler.log --error`,
	RunE: diffCommand,
}

func diffCommand(cmd *cobra.Command, args []string) error {
	if diffExpectedFile == "" {
		return helpers.UsageError(fmt.Errorf("required flag 'expected' not set"))
	}
	if diffActualFile == "" {
		return helpers.UsageError(fmt.Errorf("required flag 'actual' not set"))
	}

	expected, err := expect.ReadFile(diffExpectedFile)
	if err != nil {
		return err
	}
	actual, err := expect.ReadFile(diffActualFile)
	if err != nil {
		return err
	}

	ctxData, err := helpers.BuildContext(&diffContext, os.Environ())
	if err != nil {
		return helpers.UsageError(err)
	}

	result := compareFiles(expected, actual, diffErrorMode)
	result.Expected = diffExpectedFile
	result.Actual = diffActualFile
	result.Context = ctxData

	if err := report.WriteJSON(cmd.OutOrStdout(), result, false); err != nil {
		return err
	}
	if !result.Match {
		return helpers.Failed()
	}
	return nil
}

func compareFiles(expected, actual string, errorMode bool) *output.DiffResult {
	if errorMode {
		line := expect.ErrorLine(expected)
		return &output.DiffResult{
			Mode:       diffModeError,
			Match:      expect.MatchesError(expected, actual),
			ExpectedAt: &line,
		}
	}

	result := &output.DiffResult{Mode: diffModeOutput, Match: true}
	if d, differs := expect.FirstDifference(expected, actual); differs {
		result.Match = false
		result.FirstLine = &d.Line
		result.ExpectedAt = &d.Expected
		result.ActualAt = &d.Actual
	}
	return result
}

func init() {
	diffCmd.Flags().StringVarP(&diffExpectedFile, "expected", "e", "", "Expectation file (required)")
	diffCmd.Flags().StringVarP(&diffActualFile, "actual", "a", "", "Actual output file (required)")
	diffCmd.Flags().BoolVar(&diffErrorMode, "error", false, "Compare as a compile error test: first expected line must be a substring")
	helpers.SetupContextFlags(diffCmd, &diffContext)
}
