package source

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arloliu/rollout/internal/logging"
	"github.com/arloliu/rollout/types"
)

// DefaultFileDebounce batches the burst of events editors emit for one save.
const DefaultFileDebounce = 100 * time.Millisecond

// File implements a configuration provider backed by a file on disk.
type File struct {
	path     string
	debounce time.Duration
	logger   types.Logger
}

var _ types.WatchableProvider = (*File)(nil)

// FileOption configures a File provider.
type FileOption func(*File)

// WithFileDebounce sets how long the watcher waits for events to settle
// before reading the file.
func WithFileDebounce(d time.Duration) FileOption {
	return func(f *File) {
		f.debounce = d
	}
}

// WithFileLogger sets the logger for watch diagnostics.
func WithFileLogger(logger types.Logger) FileOption {
	return func(f *File) {
		f.logger = logger
	}
}

// NewFile creates a provider that reads the document at path.
//
// Parameters:
//   - path: Path to a YAML or JSON document
//   - opts: Optional debounce and logger
//
// Returns:
//   - *File: Initialized file provider
//
// Example:
//
//	src := source.NewFile("/etc/myapp/features.yaml")
//	mgr, err := rollout.NewManager(&cfg, rollout.WithConfigProvider(src))
//	go mgr.Watch(ctx)
func NewFile(path string, opts ...FileOption) *File {
	f := &File{
		path:     filepath.Clean(path),
		debounce: DefaultFileDebounce,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	if f.logger == nil {
		f.logger = logging.NewNop()
	}
	if f.debounce <= 0 {
		f.debounce = DefaultFileDebounce
	}

	return f
}

// Path returns the watched file path.
func (f *File) Path() string {
	return f.path
}

// FetchLatest reads the file.
//
// Returns:
//   - []byte: File contents
//   - error: Read error, or types.ErrEmptyPayload for an empty file
func (f *File) FetchLatest(_ context.Context) ([]byte, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, types.ErrEmptyPayload
	}

	return raw, nil
}

// Watch streams the file contents every time it changes, until ctx is done.
//
// The parent directory is watched rather than the file itself, so saves that
// replace the file through a rename are picked up. Events are debounced, and
// a payload is only sent when the contents differ from the previous one.
func (f *File) Watch(ctx context.Context) (<-chan []byte, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	// Seed with the current contents so an unchanged rewrite is not resent.
	last, _ := os.ReadFile(f.path)

	out := make(chan []byte, 1)
	go f.run(ctx, watcher, out, last)

	return out, nil
}

func (f *File) run(ctx context.Context, watcher *fsnotify.Watcher, out chan []byte, last []byte) {
	defer close(out)
	defer func() {
		if err := watcher.Close(); err != nil {
			f.logger.Warn("closing file watcher failed", "path", f.path, "error", err)
		}
	}()

	timer := time.NewTimer(f.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			timer.Reset(f.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("file watcher error", "path", f.path, "error", err)

		case <-timer.C:
			raw, err := os.ReadFile(f.path)
			if err != nil {
				f.logger.Warn("reading changed file failed", "path", f.path, "error", err)
				continue
			}
			if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(raw, last) {
				continue
			}
			last = raw

			f.logger.Debug("configuration file changed", "path", f.path, "bytes", len(raw))
			select {
			case out <- raw:
			case <-ctx.Done():
				return
			}
		}
	}
}
