package source

import (
	"context"
	"slices"
	"sync"

	"github.com/arloliu/rollout/types"
)

// Static implements a configuration provider backed by an in-memory document.
type Static struct {
	mu       sync.RWMutex
	raw      []byte
	watchers map[chan []byte]struct{}
}

var _ types.WatchableProvider = (*Static)(nil)

// NewStatic creates a new static configuration provider.
//
// The document is served as-is until Update replaces it. Useful for tests,
// bundled defaults and hosts that receive documents over their own transport.
//
// Parameters:
//   - raw: Initial document bytes (copied)
//
// Returns:
//   - *Static: Initialized static provider
//
// Example:
//
//	src := source.NewStatic(bundledFeatures)
//	mgr, err := rollout.NewManager(&cfg, rollout.WithConfigProvider(src))
//	_, err = mgr.Refresh(ctx)
func NewStatic(raw []byte) *Static {
	return &Static{
		raw:      slices.Clone(raw),
		watchers: make(map[chan []byte]struct{}),
	}
}

// FetchLatest returns a copy of the current document.
//
// Returns:
//   - []byte: The current document
//   - error: types.ErrEmptyPayload if the document is empty
func (s *Static) FetchLatest(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.raw) == 0 {
		return nil, types.ErrEmptyPayload
	}

	return slices.Clone(s.raw), nil
}

// Update replaces the document and pushes it to active watchers.
//
// This allows the static provider to simulate remote configuration changes.
// A watcher that has not consumed the previous payload gets the newer one
// instead; intermediate documents may be skipped, the latest never is.
//
// Example:
//
//	src := source.NewStatic(initial)
//	// Later: roll the experiment forward
//	src.Update(widened)
func (s *Static) Update(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw = slices.Clone(raw)
	for ch := range s.watchers {
		offerLatest(ch, slices.Clone(raw))
	}
}

// Watch streams documents passed to Update until ctx is done.
func (s *Static) Watch(ctx context.Context) (<-chan []byte, error) {
	ch := make(chan []byte, 1)

	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()

		s.mu.Lock()
		delete(s.watchers, ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch, nil
}

// offerLatest delivers raw on a 1-buffered channel without blocking,
// replacing a pending payload that was not consumed yet.
func offerLatest(ch chan []byte, raw []byte) {
	for {
		select {
		case ch <- raw:
			return
		default:
		}

		select {
		case <-ch:
		default:
		}
	}
}
