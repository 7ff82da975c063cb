// Package store persists the application's durable state: the OAuth token
// and the ledger of vacancies already applied to. Both are plain JSON files
// rewritten in full on every mutation so they stay human-inspectable.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotExist is returned by a Backend when the named file has never been
// written.
var ErrNotExist = errors.New("store: file does not exist")

// Backend abstracts where state files live. Local disk is the source of
// truth; the S3 backend mirrors it for ephemeral hosts.
type Backend interface {
	// Read returns the full contents of a state file.
	Read(ctx context.Context, name string) ([]byte, error)

	// Write replaces a state file with the given contents.
	Write(ctx context.Context, name string, data []byte) error
}

// Compile-time check that Local implements Backend.
var _ Backend = (*Local)(nil)

// Local stores state files in a directory on disk.
type Local struct {
	dir string
}

// NewLocal creates a Local backend rooted at dir, creating the directory if
// needed. An empty dir means the current working directory.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("store: create state directory: %w", err)
	}

	return &Local{dir: dir}, nil
}

// Dir returns the state directory path.
func (l *Local) Dir() string {
	return l.dir
}

// Read returns the contents of a state file, or ErrNotExist if it was never
// written.
func (l *Local) Read(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, name)) // #nosec G304 - name comes from configuration
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the file atomically: the data goes to a temp file in the
// same directory which is then renamed over the target, so a crash mid-write
// never leaves a torn file for the next load.
func (l *Local) Write(_ context.Context, name string, data []byte) error {
	tmp, err := os.CreateTemp(l.dir, name+"_*")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}

	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: write %s: %w", name, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(l.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("store: replace %s: %w", name, err)
	}

	return nil
}
