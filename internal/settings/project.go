// Package settings loads the project file and resolves layered key/value
// configuration for upload and webhook sinks.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zinc-sig/sntest/internal/harness"
)

// ProjectFileName is looked up under the repository root when --config is
// not given.
const ProjectFileName = "sntest.yaml"

// Project is the optional YAML project file.
type Project struct {
	Compiler       string                   `yaml:"compiler"`
	CompileTimeout Duration                 `yaml:"compile_timeout"`
	RunTimeout     Duration                 `yaml:"run_timeout"`
	Jobs           int                      `yaml:"jobs"`
	Exclude        []string                 `yaml:"exclude"`
	Suites         map[string]SuiteOverride `yaml:"suites"`
}

// SuiteOverride changes where a built-in suite looks for programs.
type SuiteOverride struct {
	Dir                 string   `yaml:"dir"`
	Pattern             string   `yaml:"pattern"`
	RunTimeout          Duration `yaml:"run_timeout"`
	ExpectationOptional *bool    `yaml:"expectation_optional"`
}

// Duration accepts "1m30s" style strings or a bare number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ParseDuration parses a Go duration; a bare integer is seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

// LoadProject reads the project file. An explicit path must exist; without
// one, <root>/sntest.yaml is used when present and an empty project otherwise.
func LoadProject(root, explicit string) (*Project, error) {
	path := explicit
	if path == "" {
		path = filepath.Join(root, ProjectFileName)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return &Project{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid project file %s: %w", path, err)
	}
	if p.Jobs < 0 {
		return nil, fmt.Errorf("invalid project file %s: jobs must be positive", path)
	}
	return &p, nil
}

// Apply returns suites with the project's overrides. Overrides naming an
// unknown suite are an error.
func (p *Project) Apply(suites []harness.SuiteConfig) ([]harness.SuiteConfig, error) {
	for name := range p.Suites {
		if _, err := harness.LookupSuite(name); err != nil {
			return nil, fmt.Errorf("project file: %w", err)
		}
	}

	out := make([]harness.SuiteConfig, len(suites))
	for i, s := range suites {
		if o, ok := p.Suites[string(s.Kind)]; ok {
			if o.Dir != "" {
				s.Dir = o.Dir
			}
			if o.Pattern != "" {
				s.Pattern = o.Pattern
			}
			if o.RunTimeout > 0 {
				s.RunTimeout = o.RunTimeout.Std()
			}
			if o.ExpectationOptional != nil {
				s.ExpectationOptional = *o.ExpectationOptional
			}
		}
		out[i] = s
	}
	return out, nil
}
