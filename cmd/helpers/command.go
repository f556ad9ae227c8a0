package helpers

import (
	"fmt"
	"slices"
	"time"

	"github.com/zinc-sig/sntest/internal/settings"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseTimeout parses and validates a timeout duration string. An empty
// string means "not set" and returns zero.
func ParseTimeout(name, timeoutStr string) (time.Duration, error) {
	if timeoutStr == "" {
		return 0, nil
	}

	timeout, err := settings.ParseDuration(timeoutStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}

	if timeout <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}

	return timeout, nil
}

// ValidateFormat checks the --format value.
func ValidateFormat(format string) error {
	if !slices.Contains([]string{FormatText, FormatJSON}, format) {
		return fmt.Errorf("invalid format %q (must be %s or %s)", format, FormatText, FormatJSON)
	}
	return nil
}

// ValidateJobs checks the --jobs value. Zero means "not given".
func ValidateJobs(jobs int) error {
	if jobs < 0 {
		return fmt.Errorf("jobs must be positive, got %d", jobs)
	}
	return nil
}
