package report

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zinc-sig/sntest/internal/harness"
	"github.com/zinc-sig/sntest/internal/output"
)

// JUnit writes the report as JUnit XML, one <testsuite> per suite.
type JUnit struct {
	nullReporter
	filePath string
}

// Struct definitions for the JUnit XML schema - see https://github.com/jstemmer/go-junit-report

type jUnitXMLDocument struct {
	XMLName xml.Name            `xml:"testsuites"`
	Suites  []jUnitXMLTestSuite `xml:"testsuite"`
}

type jUnitXMLTestSuite struct {
	XMLName    xml.Name           `xml:"testsuite"`
	Tests      int                `xml:"tests,attr"`
	Failures   int                `xml:"failures,attr"`
	Errors     int                `xml:"errors,attr"`
	Skipped    int                `xml:"skipped,attr"`
	Time       string             `xml:"time,attr"`
	Name       string             `xml:"name,attr"`
	Properties []jUnitXMLProperty `xml:"properties>property,omitempty"`
	TestCases  []jUnitXMLTestCase `xml:"testcase"`
}

type jUnitXMLTestCase struct {
	XMLName     xml.Name             `xml:"testcase"`
	Classname   string               `xml:"classname,attr"`
	Name        string               `xml:"name,attr"`
	Time        string               `xml:"time,attr"`
	SkipMessage *jUnitXMLSkipMessage `xml:"skipped,omitempty"`
	Failure     *jUnitXMLFailure     `xml:"failure,omitempty"`
}

type jUnitXMLSkipMessage struct {
	Message string `xml:"message,attr"`
}

type jUnitXMLProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type jUnitXMLFailure struct {
	Message  string `xml:"message,attr"`
	Type     string `xml:"type,attr"`
	Contents string `xml:",chardata"`
}

func NewJUnit(filePath string) *JUnit {
	return &JUnit{filePath: filePath}
}

func (j *JUnit) EndRun(report *output.Report) error {
	data, err := MarshalJUnit(report)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(j.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create JUnit directory: %w", err)
		}
	}
	if err := os.WriteFile(j.filePath, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write JUnit report: %w", err)
	}
	return nil
}

// MarshalJUnit renders the report as an indented JUnit XML document.
func MarshalJUnit(report *output.Report) ([]byte, error) {
	var doc jUnitXMLDocument

	properties := []jUnitXMLProperty{
		{Name: "sntest.run_id", Value: report.RunID},
		{Name: "sntest.compiler", Value: report.Compiler},
		{Name: "sntest.platform", Value: report.Platform},
	}

	for _, s := range report.Suites {
		suite := jUnitXMLTestSuite{
			Name:       fmt.Sprintf("sn conformance: %s", s.Title),
			Time:       jUnitDurationString(s.DurationMs),
			Failures:   s.Failed,
			Skipped:    s.Skipped,
			Tests:      len(s.Cases),
			Properties: properties,
		}
		if s.Error != "" {
			suite.Errors = 1
		}

		for _, c := range s.Cases {
			testCase := jUnitXMLTestCase{
				Classname: s.Kind,
				Name:      c.Name,
				Time:      jUnitDurationString(c.DurationMs),
			}
			switch c.Status {
			case string(harness.StatusSkip):
				testCase.SkipMessage = &jUnitXMLSkipMessage{Message: c.Reason}
			case string(harness.StatusFail):
				testCase.Failure = &jUnitXMLFailure{
					Message:  failureMessage(c),
					Type:     c.Reason,
					Contents: failureContents(c),
				}
			}
			suite.TestCases = append(suite.TestCases, testCase)
		}
		doc.Suites = append(doc.Suites, suite)
	}

	bytes, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JUnit report: %w", err)
	}
	bytes = append([]byte(xml.Header), bytes...)
	return append(bytes, '\n'), nil
}

func failureMessage(c output.Case) string {
	if c.ExitCode != nil {
		return fmt.Sprintf("%s:%d", c.Reason, *c.ExitCode)
	}
	return c.Reason
}

func failureContents(c output.Case) string {
	var lines []string
	if c.Expected != nil {
		lines = append(lines, "Expected: "+*c.Expected)
	}
	if c.Actual != nil {
		lines = append(lines, "Got:      "+*c.Actual)
	}
	lines = append(lines, c.Lines...)
	if c.Error != "" {
		lines = append(lines, "Error: "+c.Error)
	}
	return strings.Join(lines, "\n")
}

func jUnitDurationString(ms int64) string {
	return fmt.Sprintf("%.3f", (time.Duration(ms) * time.Millisecond).Seconds())
}
