package harness

import "fmt"

// Status is the outcome of classifying one test case.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Label is the upper-case form used in console output.
func (s Status) Label() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return "FAIL"
	case StatusSkip:
		return "SKIP"
	}
	return string(s)
}

// Reason explains a Skip or Fail verdict.
type Reason string

const (
	ReasonNone Reason = ""

	ReasonExcluded      Reason = "excluded"
	ReasonNoExpectation Reason = "no-expectation"

	ReasonUnexpectedCompileSuccess Reason = "unexpected-compile-success"
	ReasonWrongErrorMessage        Reason = "wrong-error-message"
	ReasonCompileError             Reason = "compile-error"
	ReasonLaunchError              Reason = "launch-error"
	ReasonPanicDidNotOccur         Reason = "expected-panic-did-not-occur"
	ReasonTimeout                  Reason = "timeout"
	ReasonNonzeroExit              Reason = "nonzero-exit"
	ReasonOutputMismatch           Reason = "output-mismatch"
)

// DiagnosticLines is how many leading stderr/output lines a failure keeps.
const DiagnosticLines = 3

// Verdict is the classification of one case plus its diagnostics.
type Verdict struct {
	Status Status
	Reason Reason

	// Expected and Actual carry first lines for wrong-error-message and
	// output-mismatch.
	Expected string
	Actual   string
	// ExitCode is set for nonzero-exit.
	ExitCode int
	// Lines holds leading stderr or output lines; only filled in verbose mode.
	Lines []string
	Err   string
}

func Pass() Verdict {
	return Verdict{Status: StatusPass}
}

func Skip(reason Reason) Verdict {
	return Verdict{Status: StatusSkip, Reason: reason}
}

func Fail(reason Reason) Verdict {
	return Verdict{Status: StatusFail, Reason: reason}
}

// Tag is the short reason shown next to a FAIL or SKIP label, e.g.
// "nonzero-exit:3".
func (v Verdict) Tag() string {
	if v.Reason == ReasonNonzeroExit {
		return fmt.Sprintf("%s:%d", v.Reason, v.ExitCode)
	}
	return string(v.Reason)
}

func (v Verdict) String() string {
	if v.Reason == ReasonNone {
		return v.Status.Label()
	}
	return fmt.Sprintf("%s (%s)", v.Status.Label(), v.Tag())
}
