package harness

import (
	"errors"
	"fmt"
	"time"
)

var ErrUnknownSuite = errors.New("unknown suite")

// Kind names a test suite.
type Kind string

const (
	KindUnit              Kind = "unit"
	KindIntegration       Kind = "integration"
	KindIntegrationErrors Kind = "integration-errors"
	KindExplore           Kind = "explore"
	KindExploreErrors     Kind = "explore-errors"
	KindSDK               Kind = "sdk"
)

// KindAll selects every suite in DefaultSuites order.
const KindAll = "all"

// SuiteConfig describes where a suite's programs live and which protocol
// classifies them.
type SuiteConfig struct {
	Kind                 Kind
	Dir                  string
	Pattern              string
	Title                string
	ExpectCompileFailure bool
	// ExpectationOptional lets positive tests pass on a clean run without
	// an .expected file.
	ExpectationOptional bool
	// RunTimeout overrides Options.RunTimeout when non-zero.
	RunTimeout time.Duration
}

// DefaultSuites returns the built-in suites in the order "all" runs them.
func DefaultSuites() []SuiteConfig {
	return []SuiteConfig{
		{
			Kind:    KindUnit,
			Dir:     "bin",
			Pattern: "tests",
			Title:   "Unit Tests",
		},
		{
			Kind:       KindIntegration,
			Dir:        "tests/integration",
			Pattern:    "*.sn",
			Title:      "Integration Tests",
			RunTimeout: 5 * time.Second,
		},
		{
			Kind:                 KindIntegrationErrors,
			Dir:                  "tests/integration/errors",
			Pattern:              "*.sn",
			Title:                "Integration Error Tests",
			ExpectCompileFailure: true,
		},
		{
			Kind:                KindExplore,
			Dir:                 "tests/exploratory",
			Pattern:             "test_*.sn",
			Title:               "Exploratory Tests",
			ExpectationOptional: true,
		},
		{
			Kind:                 KindExploreErrors,
			Dir:                  "tests/exploratory/errors",
			Pattern:              "*.sn",
			Title:                "Exploratory Error Tests",
			ExpectCompileFailure: true,
		},
		{
			Kind:                KindSDK,
			Dir:                 "tests/sdk",
			Pattern:             "test_*.sn",
			Title:               "SDK Tests",
			ExpectationOptional: true,
		},
	}
}

// LookupSuite finds a default suite by kind name.
func LookupSuite(name string) (SuiteConfig, error) {
	for _, s := range DefaultSuites() {
		if string(s.Kind) == name {
			return s, nil
		}
	}
	return SuiteConfig{}, fmt.Errorf("%w: %q", ErrUnknownSuite, name)
}

// ResolveSuites turns command-line suite names into configs. No names, or
// "all" anywhere in the list, selects every suite. Repeated names run once.
func ResolveSuites(names []string) ([]SuiteConfig, error) {
	if len(names) == 0 {
		return DefaultSuites(), nil
	}

	var suites []SuiteConfig
	seen := make(map[string]bool)
	for _, name := range names {
		if name == KindAll {
			return DefaultSuites(), nil
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		suite, err := LookupSuite(name)
		if err != nil {
			return nil, err
		}
		suites = append(suites, suite)
	}
	return suites, nil
}

// SuiteNames lists the accepted suite arguments.
func SuiteNames() []string {
	names := []string{}
	for _, s := range DefaultSuites() {
		names = append(names, string(s.Kind))
	}
	return append(names, KindAll)
}
