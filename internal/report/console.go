package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/zinc-sig/sntest/internal/harness"
	"github.com/zinc-sig/sntest/internal/output"
)

const (
	nameWidth    = 45
	ruleWidth    = 60
	detailIndent = "    "
)

type palette struct {
	title   *color.Color
	pass    *color.Color
	fail    *color.Color
	skip    *color.Color
	detail  *color.Color
	warning *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		title:   color.New(color.Bold),
		pass:    color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		skip:    color.New(color.FgYellow),
		detail:  color.New(color.Faint),
		warning: color.New(color.FgYellow, color.Bold),
	}
	for _, c := range []*color.Color{p.title, p.pass, p.fail, p.skip, p.detail, p.warning} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// ColorEnabled reports whether w is a terminal and colors were not turned off.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Console prints one aligned line per case and a summary per suite.
type Console struct {
	w       io.Writer
	verbose bool
	colors  palette
}

func NewConsole(w io.Writer, verbose, useColor bool) *Console {
	return &Console{w: w, verbose: verbose, colors: newPalette(useColor)}
}

func (c *Console) RunStarted(info RunInfo) {
	fmt.Fprintf(c.w, "Compiler: %s\n", info.Compiler)
	fmt.Fprintf(c.w, "Platform: %s\n", info.Platform)
}

func (c *Console) SuiteStarted(suite harness.SuiteConfig, cases []harness.TestCase) {
	fmt.Fprintln(c.w)
	_, _ = c.colors.title.Fprintln(c.w, suite.Title)
	fmt.Fprintln(c.w, strings.Repeat("=", ruleWidth))
	if len(cases) == 0 && suite.Kind != harness.KindUnit {
		fmt.Fprintf(c.w, "No test files found matching: %s/%s\n", suite.Dir, suite.Pattern)
	}
}

func (c *Console) CaseFinished(suite harness.SuiteConfig, result harness.CaseResult) {
	v := result.Verdict
	fmt.Fprintf(c.w, "  %-*s ", nameWidth, result.Case.Name)

	switch v.Status {
	case harness.StatusPass:
		_, _ = c.colors.pass.Fprintln(c.w, v.String())
	case harness.StatusFail:
		_, _ = c.colors.fail.Fprintln(c.w, v.String())
	default:
		_, _ = c.colors.skip.Fprintln(c.w, v.String())
	}

	if c.verbose && v.Status == harness.StatusFail {
		c.printDetails(v)
	}
}

func (c *Console) printDetails(v harness.Verdict) {
	if v.Expected != "" || v.Actual != "" {
		_, _ = c.colors.detail.Fprintf(c.w, "%sExpected: %s\n", detailIndent, v.Expected)
		_, _ = c.colors.detail.Fprintf(c.w, "%sGot:      %s\n", detailIndent, v.Actual)
	}
	for _, line := range v.Lines {
		_, _ = c.colors.detail.Fprintf(c.w, "%s%s\n", detailIndent, line)
	}
	if v.Err != "" {
		_, _ = c.colors.detail.Fprintf(c.w, "%sError: %s\n", detailIndent, v.Err)
	}
}

func (c *Console) SuiteFinished(summary harness.SuiteSummary) {
	if summary.Err != nil {
		_, _ = c.colors.fail.Fprintf(c.w, "  error: %v\n", summary.Err)
	}
	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, strings.Repeat("-", ruleWidth))
	fmt.Fprintf(c.w, "Results: %d passed, %d failed, %d skipped\n", summary.Passed, summary.Failed, summary.Skipped)
}

func (c *Console) EndRun(report *output.Report) error {
	if len(report.Regressions) > 0 {
		fmt.Fprintln(c.w)
		_, _ = c.colors.warning.Fprintf(c.w, "Regressions since previous run (%d):\n", len(report.Regressions))
		for _, id := range report.Regressions {
			_, _ = c.colors.fail.Fprintf(c.w, "  * %s\n", id)
		}
	}

	fmt.Fprintln(c.w)
	fmt.Fprintln(c.w, strings.Repeat("=", ruleWidth))
	if report.OK {
		_, _ = c.colors.pass.Fprintln(c.w, "All tests passed!")
	} else {
		_, _ = c.colors.fail.Fprintln(c.w, "Some tests failed!")
	}
	return nil
}
