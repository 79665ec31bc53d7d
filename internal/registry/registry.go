// Package registry holds the active feature configuration as an immutable,
// atomically swapped snapshot.
//
// Readers call Load and work against the returned snapshot without locking.
// The single writer builds the next snapshot with Build and publishes it with
// Swap.
package registry

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/rollout/internal/hash"
	"github.com/arloliu/rollout/internal/logging"
	"github.com/arloliu/rollout/internal/metrics"
	"github.com/arloliu/rollout/strategy"
	"github.com/arloliu/rollout/types"
)

// DefaultMaxCachedAssignments bounds the per-snapshot memo.
const DefaultMaxCachedAssignments = 100_000

// Registry owns the current snapshot.
type Registry struct {
	current atomic.Pointer[Snapshot]

	strategy  types.AssignmentStrategy
	metrics   types.AssignmentMetrics
	logger    types.Logger
	memoLimit int
}

// Option configures a Registry.
type Option func(*Registry)

// WithStrategy sets the assignment strategy. Defaults to strategy.NewWeighted().
func WithStrategy(s types.AssignmentStrategy) Option {
	return func(r *Registry) {
		r.strategy = s
	}
}

// WithMaxCachedAssignments bounds the memo of each snapshot. Zero or a
// negative value disables memoization.
func WithMaxCachedAssignments(n int) Option {
	return func(r *Registry) {
		r.memoLimit = n
	}
}

// WithMetrics sets the assignment metrics collector.
func WithMetrics(m types.AssignmentMetrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger types.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty (uninitialized) registry.
//
// Parameters:
//   - opts: Optional strategy, memo bound, metrics and logger
//
// Returns:
//   - *Registry: Registry with no snapshot loaded
func New(opts ...Option) *Registry {
	r := &Registry{memoLimit: DefaultMaxCachedAssignments}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	if r.strategy == nil {
		r.strategy = strategy.NewWeighted()
	}
	if r.metrics == nil {
		r.metrics = metrics.NewNop()
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}

	return r
}

// Load returns the current snapshot, or nil before the first Swap.
func (r *Registry) Load() *Snapshot {
	return r.current.Load()
}

// State reports whether a snapshot has been published.
func (r *Registry) State() types.State {
	if r.current.Load() == nil {
		return types.StateUninitialized
	}

	return types.StateActive
}

// Build creates a snapshot of doc at the given version without publishing it.
//
// The document is taken as-is; it must come from the document package and
// must not be modified afterwards.
func (r *Registry) Build(doc *types.Document, version uint64) *Snapshot {
	if doc == nil {
		doc = &types.Document{}
	}

	s := &Snapshot{
		version:   version,
		doc:       doc,
		index:     make(map[string]int, len(doc.Features)),
		buckets:   make([]*hash.Buckets, len(doc.Features)),
		strategy:  r.strategy,
		metrics:   r.metrics,
		memoLimit: r.memoLimit,
	}

	for i := range doc.Features {
		f := &doc.Features[i]
		s.index[f.Name] = i

		if n := len(f.Variations); n > 0 {
			weights := f.Weights
			if len(weights) != n {
				weights = hash.Uniform(n)
			}
			s.buckets[i] = hash.NewBuckets(weights)
		}
	}

	if r.memoLimit > 0 {
		s.memo = xsync.NewMap[memoKey, int]()
	}

	r.logger.Debug("snapshot built", "version", version, "features", len(doc.Features))

	return s
}

// Swap publishes next and returns the snapshot it replaced (nil if none).
func (r *Registry) Swap(next *Snapshot) *Snapshot {
	return r.current.Swap(next)
}
