package harness

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"
)

// ExcludeEnvVar lists space-separated test names to skip.
const ExcludeEnvVar = "SN_EXCLUDE_TESTS"

// Exclusions is the set of test names skipped without being compiled.
type Exclusions map[string]struct{}

func NewExclusions(names ...string) Exclusions {
	e := Exclusions{}
	e.Add(names...)
	return e
}

// Add inserts names, ignoring blanks.
func (e Exclusions) Add(names ...string) {
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			e[n] = struct{}{}
		}
	}
}

func (e Exclusions) Contains(name string) bool {
	_, ok := e[name]
	return ok
}

// Names returns the excluded names sorted.
func (e Exclusions) Names() []string {
	names := make([]string, 0, len(e))
	for n := range e {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// ParseEnvList splits the SN_EXCLUDE_TESTS format.
func ParseEnvList(value string) []string {
	return strings.Fields(value)
}

// ParseFlagList splits the comma-separated --exclude format.
func ParseFlagList(value string) []string {
	var names []string
	for _, n := range strings.Split(value, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

// LoadSkipFile reads one test name per line. Blank lines and lines starting
// with # are ignored.
func LoadSkipFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open skip file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read skip file: %w", err)
	}
	return names, nil
}
