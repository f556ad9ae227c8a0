package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/sntest/cmd/config"
	"github.com/zinc-sig/sntest/cmd/helpers"
	"github.com/zinc-sig/sntest/internal/harness"
	"github.com/zinc-sig/sntest/internal/report"
	"github.com/zinc-sig/sntest/internal/settings"
)

var (
	listSelection config.SelectionFlags
	listFormat    string
)

var listCmd = &cobra.Command{
	Use:   "list [suite...]",
	Short: "List discovered test cases",
	Long: `List the test cases each suite would run, with the expectations found next to
each source: an expected output file, a panic marker, or an expected compile
failure. Excluded cases are marked.`,
	Example: `  sntest list
  sntest list integration-errors --format json`,
	ValidArgs: harness.SuiteNames(),
	RunE:      listCommand,
}

type listedCase struct {
	Name           string `json:"name"`
	Source         string `json:"source"`
	Expected       bool   `json:"expected"`
	Panic          bool   `json:"panic"`
	CompileFailure bool   `json:"compile_failure"`
	Excluded       bool   `json:"excluded"`
}

type listedSuite struct {
	Kind    string       `json:"kind"`
	Title   string       `json:"title"`
	Dir     string       `json:"dir"`
	Pattern string       `json:"pattern"`
	Error   string       `json:"error,omitempty"`
	Cases   []listedCase `json:"cases"`
}

func listCommand(cmd *cobra.Command, args []string) error {
	if err := helpers.ValidateFormat(listFormat); err != nil {
		return helpers.UsageError(err)
	}

	suites, err := harness.ResolveSuites(args)
	if err != nil {
		return helpers.UsageError(err)
	}

	project, err := settings.LoadProject(listSelection.Root, listSelection.ConfigFile)
	if err != nil {
		return err
	}
	if suites, err = project.Apply(suites); err != nil {
		return helpers.UsageError(err)
	}

	excluded, err := helpers.BuildExclusions(&listSelection, project, harness.DefaultEnvironment(os.Environ()))
	if err != nil {
		return err
	}

	listed, failed := discoverAll(listSelection.Root, suites, excluded)

	out := cmd.OutOrStdout()
	if listFormat == helpers.FormatJSON {
		if err := report.WriteJSON(out, listed, true); err != nil {
			return err
		}
	} else {
		printListing(out, listed)
	}

	if failed {
		return helpers.Failed()
	}
	return nil
}

func discoverAll(root string, suites []harness.SuiteConfig, excluded harness.Exclusions) ([]listedSuite, bool) {
	failed := false
	listed := make([]listedSuite, 0, len(suites))

	for _, suite := range suites {
		ls := listedSuite{
			Kind:    string(suite.Kind),
			Title:   suite.Title,
			Dir:     suite.Dir,
			Pattern: suite.Pattern,
			Cases:   []listedCase{},
		}

		cases, err := harness.Discover(root, suite, runtime.GOOS)
		if err != nil {
			ls.Error = err.Error()
			failed = true
		}
		for _, tc := range cases {
			ls.Cases = append(ls.Cases, listedCase{
				Name:           tc.Name,
				Source:         tc.Source,
				Expected:       tc.ExpectedFile != "",
				Panic:          tc.PanicFile != "",
				CompileFailure: tc.ExpectCompileFailure,
				Excluded:       suite.Kind != harness.KindUnit && excluded.Contains(tc.Name),
			})
		}
		listed = append(listed, ls)
	}
	return listed, failed
}

func printListing(w io.Writer, suites []listedSuite) {
	for _, s := range suites {
		fmt.Fprintf(w, "%s (%s/%s): %d cases\n", s.Title, s.Dir, s.Pattern, len(s.Cases))
		if s.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", s.Error)
		}
		for _, c := range s.Cases {
			fmt.Fprintf(w, "  %-45s %s\n", c.Name, caseMarkers(c))
		}
	}
}

func caseMarkers(c listedCase) string {
	var markers []string
	if c.CompileFailure {
		markers = append(markers, "compile-error")
	}
	if c.Expected {
		markers = append(markers, "expected")
	}
	if c.Panic {
		markers = append(markers, "panic")
	}
	if c.Excluded {
		markers = append(markers, "excluded")
	}
	if len(markers) == 0 {
		return "-"
	}
	return strings.Join(markers, ", ")
}

func init() {
	helpers.SetupSelectionFlags(listCmd, &listSelection)
	listCmd.Flags().StringVar(&listFormat, "format", helpers.FormatText, "Output format: text or json")
}
