package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
)

// Provider defines the interface for report upload providers
type Provider interface {
	// Upload uploads content from reader to the remote path
	Upload(ctx context.Context, reader io.Reader, remotePath string) error

	// Configure sets up the provider with the given configuration
	Configure(config map[string]any) error

	// Name returns the provider name
	Name() string
}

// Artifact is one file produced by a run, e.g. report.json or junit.xml.
type Artifact struct {
	Name string
	Data []byte
}

// RunPath is the remote path of an artifact: <runID>/<name>.
func RunPath(runID, name string) string {
	return path.Join(runID, name)
}

// UploadRun uploads every artifact under the run's directory. All
// artifacts are attempted; failures are joined.
func UploadRun(ctx context.Context, p Provider, runID string, artifacts []Artifact) error {
	var errs []error
	for _, a := range artifacts {
		remote := RunPath(runID, a.Name)
		if err := p.Upload(ctx, bytes.NewReader(a.Data), remote); err != nil {
			errs = append(errs, fmt.Errorf("upload %s: %w", a.Name, err))
		}
	}
	return errors.Join(errs...)
}
