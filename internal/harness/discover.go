package harness

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var ErrDuplicateName = errors.New("duplicate test name")

const (
	ExpectedExt = ".expected"
	PanicExt    = ".panic"
)

// TestCase is one discovered program and its companion files.
type TestCase struct {
	Name   string
	Source string
	// ExpectedFile and PanicFile are empty when the companion is absent.
	ExpectedFile         string
	PanicFile            string
	ExpectCompileFailure bool
}

// Discover finds the cases of a suite under root in lexicographic order of
// their source paths. A missing directory yields no cases; a match that
// cannot be stat'ed, such as a dangling symlink, is an error.
func Discover(root string, suite SuiteConfig, goos string) ([]TestCase, error) {
	if suite.Kind == KindUnit {
		return []TestCase{unitCase(root, suite, goos)}, nil
	}

	pattern := filepath.Join(root, suite.Dir, suite.Pattern)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)

	cases := make([]TestCase, 0, len(matches))
	seen := make(map[string]string, len(matches))
	for _, src := range matches {
		info, err := os.Stat(src)
		if err != nil {
			return nil, fmt.Errorf("unreadable test source: %w", err)
		}
		if info.IsDir() {
			continue
		}

		name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w %q: %s and %s", ErrDuplicateName, name, prev, src)
		}
		seen[name] = src

		base := filepath.Join(filepath.Dir(src), name)
		cases = append(cases, TestCase{
			Name:                 name,
			Source:               src,
			ExpectedFile:         companion(base + ExpectedExt),
			PanicFile:            companion(base + PanicExt),
			ExpectCompileFailure: suite.ExpectCompileFailure,
		})
	}
	return cases, nil
}

func unitCase(root string, suite SuiteConfig, goos string) TestCase {
	return TestCase{
		Name:   suite.Pattern,
		Source: filepath.Join(root, suite.Dir, suite.Pattern+ExeSuffix(goos)),
	}
}

func companion(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// ExeSuffix is the executable file extension for goos.
func ExeSuffix(goos string) string {
	if goos == "windows" {
		return ".exe"
	}
	return ""
}
