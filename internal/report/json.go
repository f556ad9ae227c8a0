package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/zinc-sig/sntest/internal/output"
)

// JSON prints the final report as a single JSON document.
type JSON struct {
	nullReporter
	w      io.Writer
	indent bool
}

func NewJSON(w io.Writer, indent bool) *JSON {
	return &JSON{w: w, indent: indent}
}

func (j *JSON) EndRun(report *output.Report) error {
	return WriteJSON(j.w, report, j.indent)
}

// WriteJSON marshals v followed by a newline.
func WriteJSON(w io.Writer, v any, indent bool) error {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	return nil
}
