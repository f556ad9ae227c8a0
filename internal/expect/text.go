// Package expect holds the text rules used to compare program output and
// compiler diagnostics against recorded expectations.
package expect

import (
	"fmt"
	"os"
	"strings"
)

// EmptyPlaceholder stands in for an empty first line in diagnostics.
const EmptyPlaceholder = "(empty)"

// Normalize converts CRLF and lone CR line endings to LF.
func Normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// Equal compares two texts after line-ending normalization. No other
// whitespace is trimmed.
func Equal(expected, actual string) bool {
	return Normalize(expected) == Normalize(actual)
}

// FirstLine returns the text before the first line break.
func FirstLine(s string) string {
	line, _, _ := strings.Cut(Normalize(s), "\n")
	return line
}

// FirstLineOrPlaceholder is FirstLine, with EmptyPlaceholder for an empty line.
func FirstLineOrPlaceholder(s string) string {
	if line := FirstLine(s); line != "" {
		return line
	}
	return EmptyPlaceholder
}

// HeadLines returns at most n leading lines. A trailing line break does not
// produce an extra empty line.
func HeadLines(s string, n int) []string {
	if s == "" || n <= 0 {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(Normalize(s), "\n"), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}

// TailLines returns at most n trailing lines.
func TailLines(s string, n int) []string {
	if s == "" || n <= 0 {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(Normalize(s), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

// ErrorLine extracts the expected diagnostic from an expectation text: the
// first line with surrounding whitespace removed.
func ErrorLine(expected string) string {
	return strings.TrimSpace(FirstLine(expected))
}

// MatchesError reports whether the expected diagnostic appears anywhere in
// the compiler's stderr. An empty expected line always matches.
func MatchesError(expected, stderr string) bool {
	return strings.Contains(stderr, ErrorLine(expected))
}

// Difference describes the first line at which two texts disagree.
type Difference struct {
	Line     int    `json:"line"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// FirstDifference locates the first differing line (1-based) between two
// normalized texts. ok is false when the texts are equal.
func FirstDifference(expected, actual string) (diff Difference, ok bool) {
	e := strings.Split(Normalize(expected), "\n")
	a := strings.Split(Normalize(actual), "\n")

	for i := 0; i < len(e) || i < len(a); i++ {
		var want, got string
		if i < len(e) {
			want = e[i]
		}
		if i < len(a) {
			got = a[i]
		}
		if want != got || i >= len(e) || i >= len(a) {
			return Difference{Line: i + 1, Expected: want, Actual: got}, true
		}
	}
	return Difference{}, false
}

// ReadFile loads an expectation file.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read expectation %s: %w", path, err)
	}
	return string(data), nil
}
