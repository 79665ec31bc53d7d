package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	rollouttest "github.com/arloliu/rollout/testing"
	"github.com/arloliu/rollout/types"
)

func TestFile_FetchLatest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.yaml")

	src := NewFile(path)
	require.Equal(t, path, src.Path())

	_, err := src.FetchLatest(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o600))
	_, err = src.FetchLatest(context.Background())
	require.ErrorIs(t, err, types.ErrEmptyPayload)

	require.NoError(t, os.WriteFile(path, []byte("features: []\n"), 0o600))
	raw, err := src.FetchLatest(context.Background())
	require.NoError(t, err)
	require.Equal(t, "features: []\n", string(raw))
}

func TestFile_Watch(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "features.yaml")
	require.NoError(t, os.WriteFile(path, []byte("features: []\n"), 0o600))

	src := NewFile(path,
		WithFileDebounce(20*time.Millisecond),
		WithFileLogger(rollouttest.NewTestLogger(t)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	updates, err := src.Watch(ctx)
	require.NoError(t, err)

	// In-place write.
	require.NoError(t, os.WriteFile(path, []byte("features:\n  - name: a\n"), 0o600))
	require.Equal(t, "features:\n  - name: a\n", string(receive(t, updates)))

	// Atomic replace through rename.
	rollouttest.WriteDocument(t, path, []byte("features:\n  - name: b\n"))
	require.Equal(t, "features:\n  - name: b\n", string(receive(t, updates)))

	// Other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o600))
	select {
	case raw := <-updates:
		t.Fatalf("unexpected payload %q", raw)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	requireClosed(t, updates)
}

func TestFile_WatchMissingDirectory(t *testing.T) {
	src := NewFile(filepath.Join(t.TempDir(), "missing", "features.yaml"))

	_, err := src.Watch(context.Background())
	require.Error(t, err)
}
