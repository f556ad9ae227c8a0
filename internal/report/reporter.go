// Package report renders run progress and results: console lines while the
// run is going, and JUnit, JSON and failure-list files at the end.
package report

import (
	"errors"

	"github.com/zinc-sig/sntest/internal/harness"
	"github.com/zinc-sig/sntest/internal/output"
)

// RunInfo is shown before the first suite.
type RunInfo struct {
	Compiler string
	Platform string
}

type Reporter interface {
	harness.Observer
	RunStarted(info RunInfo)
	EndRun(report *output.Report) error
}

// nullReporter ignores progress; file writers embed it and only act in EndRun.
type nullReporter struct{}

func (nullReporter) RunStarted(RunInfo)                                   {}
func (nullReporter) SuiteStarted(harness.SuiteConfig, []harness.TestCase) {}
func (nullReporter) CaseFinished(harness.SuiteConfig, harness.CaseResult) {}
func (nullReporter) SuiteFinished(harness.SuiteSummary)                   {}

// Multi fans every notification out to its reporters in order.
type Multi []Reporter

func (m Multi) RunStarted(info RunInfo) {
	for _, r := range m {
		r.RunStarted(info)
	}
}

func (m Multi) SuiteStarted(suite harness.SuiteConfig, cases []harness.TestCase) {
	for _, r := range m {
		r.SuiteStarted(suite, cases)
	}
}

func (m Multi) CaseFinished(suite harness.SuiteConfig, result harness.CaseResult) {
	for _, r := range m {
		r.CaseFinished(suite, result)
	}
}

func (m Multi) SuiteFinished(summary harness.SuiteSummary) {
	for _, r := range m {
		r.SuiteFinished(summary)
	}
}

// EndRun calls every reporter even when one fails and joins the errors.
func (m Multi) EndRun(report *output.Report) error {
	var errs []error
	for _, r := range m {
		if err := r.EndRun(report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
