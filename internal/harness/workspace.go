package harness

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const workspacePrefix = "sn_test_"

var errNoWorkspace = errors.New("no workspace configured")

// Workspace is the scoped temporary directory holding compiled artifacts.
type Workspace struct {
	dir string
}

func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", workspacePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

func (w *Workspace) Dir() string {
	return w.dir
}

// ArtifactPath returns <dir>/<kind>/<name><exe>, creating the kind
// directory. Paths are distinct for distinct (kind, name) pairs.
func (w *Workspace) ArtifactPath(kind Kind, name, goos string) (string, error) {
	if w == nil {
		return "", errNoWorkspace
	}
	dir := filepath.Join(w.dir, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return filepath.Join(dir, name+ExeSuffix(goos)), nil
}

// Close removes the workspace. Removal is best effort.
func (w *Workspace) Close() error {
	if w == nil || w.dir == "" {
		return nil
	}
	return os.RemoveAll(w.dir)
}
