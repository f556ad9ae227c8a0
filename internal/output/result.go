package output

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zinc-sig/sntest/internal/harness"
)

// Report is the machine-readable form of a run. It is what --format json
// prints, what the webhook receives and what gets uploaded.
type Report struct {
	RunID      string          `json:"run_id"`
	Compiler   string          `json:"compiler"`
	Platform   string          `json:"platform"`
	StartedAt  time.Time       `json:"started_at"`
	DurationMs int64           `json:"duration_ms"`
	OK         bool            `json:"ok"`
	Passed     int             `json:"passed"`
	Failed     int             `json:"failed"`
	Skipped    int             `json:"skipped"`
	Total      int             `json:"total"`
	PassRate   decimal.Decimal `json:"pass_rate"`
	Suites     []Suite         `json:"suites"`
	Context    any             `json:"context,omitempty"`

	// Regressions lists "kind/name" cases that passed in the previous
	// recorded run and fail now.
	Regressions []string `json:"regressions,omitempty"`

	// Webhook status (only in local output, not sent to webhook)
	WebhookSent  bool   `json:"webhook_sent,omitempty"`
	WebhookError string `json:"webhook_error,omitempty"`
}

type Suite struct {
	Kind       string `json:"kind"`
	Title      string `json:"title"`
	OK         bool   `json:"ok"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	Cases      []Case `json:"cases"`
}

type Case struct {
	Name       string   `json:"name"`
	Source     string   `json:"source"`
	Status     string   `json:"status"`
	Reason     string   `json:"reason,omitempty"`
	ExitCode   *int     `json:"exit_code,omitempty"`
	Expected   *string  `json:"expected,omitempty"`
	Actual     *string  `json:"actual,omitempty"`
	Lines      []string `json:"lines,omitempty"`
	Error      string   `json:"error,omitempty"`
	DurationMs int64    `json:"duration_ms"`
}

// ID is the "kind/name" key used by history and failure lists.
func (c Case) ID(kind string) string {
	return kind + "/" + c.Name
}

// FromRun builds the report for a finished run.
func FromRun(run harness.RunSummary, compiler, platform string) *Report {
	report := &Report{
		RunID:      run.RunID,
		Compiler:   compiler,
		Platform:   platform,
		StartedAt:  run.StartedAt,
		DurationMs: run.Duration.Milliseconds(),
		OK:         run.OK(),
		Suites:     make([]Suite, 0, len(run.Suites)),
	}

	report.Passed, report.Failed, report.Skipped = run.Totals()
	report.Total = report.Passed + report.Failed + report.Skipped
	report.PassRate = PassRate(report.Passed, report.Failed)

	for _, s := range run.Suites {
		report.Suites = append(report.Suites, fromSuite(s))
	}
	return report
}

// PassRate is passed/(passed+failed) as a percentage with two decimals.
// Skipped cases are not counted; no executed cases gives zero.
func PassRate(passed, failed int) decimal.Decimal {
	executed := passed + failed
	if executed == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(passed)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(executed)), 2)
}

func fromSuite(s harness.SuiteSummary) Suite {
	suite := Suite{
		Kind:       string(s.Kind),
		Title:      s.Title,
		OK:         s.OK(),
		Passed:     s.Passed,
		Failed:     s.Failed,
		Skipped:    s.Skipped,
		DurationMs: s.Duration.Milliseconds(),
		Cases:      make([]Case, 0, len(s.Results)),
	}
	if s.Err != nil {
		suite.Error = s.Err.Error()
	}
	for _, r := range s.Results {
		suite.Cases = append(suite.Cases, fromCase(r))
	}
	return suite
}

func fromCase(r harness.CaseResult) Case {
	v := r.Verdict
	c := Case{
		Name:       r.Case.Name,
		Source:     r.Case.Source,
		Status:     string(v.Status),
		Reason:     string(v.Reason),
		Lines:      v.Lines,
		Error:      v.Err,
		DurationMs: r.Duration.Milliseconds(),
	}

	switch v.Reason {
	case harness.ReasonNonzeroExit:
		code := v.ExitCode
		c.ExitCode = &code
	case harness.ReasonWrongErrorMessage, harness.ReasonOutputMismatch:
		expected, actual := v.Expected, v.Actual
		c.Expected = &expected
		c.Actual = &actual
	}
	return c
}

// Failures returns the failing cases as "kind/name" keys in run order.
func (r *Report) Failures() []string {
	var ids []string
	for _, s := range r.Suites {
		for _, c := range s.Cases {
			if c.Status == string(harness.StatusFail) {
				ids = append(ids, c.ID(s.Kind))
			}
		}
	}
	return ids
}

// FailedNames returns the names of failing cases, the format --skip-file reads.
func (r *Report) FailedNames() []string {
	var names []string
	for _, s := range r.Suites {
		for _, c := range s.Cases {
			if c.Status == string(harness.StatusFail) {
				names = append(names, c.Name)
			}
		}
	}
	return names
}

// DiffResult is printed by the diff command.
type DiffResult struct {
	Mode       string  `json:"mode"`
	Expected   string  `json:"expected"`
	Actual     string  `json:"actual"`
	Match      bool    `json:"match"`
	FirstLine  *int    `json:"first_difference_line,omitempty"`
	ExpectedAt *string `json:"expected_line,omitempty"`
	ActualAt   *string `json:"actual_line,omitempty"`
	Context    any     `json:"context,omitempty"`
}
