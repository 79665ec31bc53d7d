package identity

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/arloliu/rollout/types"
)

// File persists a generated subject identifier on disk.
//
// The identifier is read from the file when it exists; otherwise a random
// UUID is generated and written atomically. The value is cached after the
// first successful call.
type File struct {
	path string

	mu sync.Mutex
	id string
}

var _ types.SubjectProvider = (*File)(nil)

// NewFile creates a provider backed by path. Nothing is read or written
// until the first call to CurrentSubjectID.
func NewFile(path string) *File {
	return &File{path: filepath.Clean(path)}
}

// OpenFile creates a provider backed by path and resolves the identifier
// immediately, creating the file if needed.
//
// Parameters:
//   - path: File holding the identifier
//
// Returns:
//   - *File: Provider with the identifier loaded
//   - error: Read, generate or write error
//
// Example:
//
//	subjects, err := identity.OpenFile(filepath.Join(stateDir, "subject-id"))
//	if err != nil {
//	    return err
//	}
//	mgr, err := rollout.NewManager(&cfg, rollout.WithSubjectProvider(subjects))
func OpenFile(path string) (*File, error) {
	f := NewFile(path)
	if _, err := f.CurrentSubjectID(); err != nil {
		return nil, err
	}

	return f, nil
}

// Path returns the file holding the identifier.
func (f *File) Path() string {
	return f.path
}

// CurrentSubjectID returns the persisted identifier, creating it on first use.
func (f *File) CurrentSubjectID() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.id != "" {
		return f.id, nil
	}

	id, err := f.load()
	if err != nil {
		return "", err
	}
	f.id = id

	return id, nil
}

func (f *File) load() (string, error) {
	data, err := os.ReadFile(f.path)
	switch {
	case err == nil:
		id := strings.TrimSpace(string(data))
		if id == "" {
			return "", fmt.Errorf("%w: %s", types.ErrEmptySubject, f.path)
		}

		return id, nil
	case errors.Is(err, os.ErrNotExist):
		return f.create()
	default:
		return "", fmt.Errorf("read subject id %s: %w", f.path, err)
	}
}

// create writes a fresh UUID to a temp file and links it into place so a crash
// never leaves a truncated identifier behind.
func (f *File) create() (string, error) {
	id := uuid.NewString()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(id + "\n"); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write subject id: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	// Another process may have created the file meanwhile; keep its value.
	if err := os.Link(tmp.Name(), f.path); err != nil {
		if errors.Is(err, os.ErrExist) {
			data, readErr := os.ReadFile(f.path)
			if readErr != nil {
				return "", fmt.Errorf("read subject id %s: %w", f.path, readErr)
			}
			if existing := strings.TrimSpace(string(data)); existing != "" {
				return existing, nil
			}

			return "", fmt.Errorf("%w: %s", types.ErrEmptySubject, f.path)
		}

		return "", fmt.Errorf("persist subject id %s: %w", f.path, err)
	}

	return id, nil
}
