package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/zinc-sig/sntest/internal/output"
)

// FailureList writes failing test names one per line, the format read by
// --skip-file.
type FailureList struct {
	nullReporter
	filePath string
}

func NewFailureList(filePath string) *FailureList {
	return &FailureList{filePath: filePath}
}

func (f *FailureList) EndRun(report *output.Report) error {
	var sb strings.Builder
	for _, name := range report.FailedNames() {
		sb.WriteString(name)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(f.filePath, []byte(sb.String()), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write failure list: %w", err)
	}
	return nil
}
