package helpers

import (
	"bytes"
	"io"
	"runtime"
	"strings"

	"github.com/zinc-sig/sntest/cmd/config"
	"github.com/zinc-sig/sntest/internal/output"
	"github.com/zinc-sig/sntest/internal/report"
	"github.com/zinc-sig/sntest/internal/upload"
)

// Platform is the "os/arch" string shown in the header and the report.
func Platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// BuildReporters assembles the reporters for a run. With --format json the
// console goes to stderr so stdout carries only the JSON report.
func BuildReporters(flags *config.ReportFlags, runFlags *config.RunFlags, stdout, stderr io.Writer) report.Multi {
	consoleOut := stdout
	if flags.Format == FormatJSON {
		consoleOut = stderr
	}

	useColor := report.ColorEnabled(consoleOut, runFlags.NoColor)
	reporters := report.Multi{report.NewConsole(consoleOut, runFlags.Verbose, useColor)}

	if flags.Format == FormatJSON {
		reporters = append(reporters, report.NewJSON(stdout, true))
	}
	if flags.JUnit != "" {
		reporters = append(reporters, report.NewJUnit(flags.JUnit))
	}
	if flags.RecordFailures != "" {
		reporters = append(reporters, report.NewFailureList(flags.RecordFailures))
	}
	return reporters
}

// Artifacts renders the files uploaded for a run.
func Artifacts(rep *output.Report) ([]upload.Artifact, error) {
	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, rep, true); err != nil {
		return nil, err
	}

	junit, err := report.MarshalJUnit(rep)
	if err != nil {
		return nil, err
	}

	var failures strings.Builder
	for _, name := range rep.FailedNames() {
		failures.WriteString(name)
		failures.WriteByte('\n')
	}

	return []upload.Artifact{
		{Name: "report.json", Data: buf.Bytes()},
		{Name: "junit.xml", Data: junit},
		{Name: "failures.txt", Data: []byte(failures.String())},
	}, nil
}
