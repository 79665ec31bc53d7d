// Package controller applies configuration documents to the feature registry.
//
// The Controller is the single writer: it versions documents, swaps the
// registry snapshot, reports what changed and notifies observers. Readers
// go straight to the registry and never touch the controller.
package controller

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/rollout/internal/logging"
	"github.com/arloliu/rollout/internal/metrics"
	"github.com/arloliu/rollout/internal/registry"
	"github.com/arloliu/rollout/types"
)

// Controller serializes configuration updates.
type Controller struct {
	mu       sync.Mutex
	registry *registry.Registry

	logger  types.Logger
	metrics types.UpdateMetrics

	observers      *xsync.Map[uint64, types.Observer]
	nextObserverID atomic.Uint64
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(logger types.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics sets the update metrics collector.
func WithMetrics(m types.UpdateMetrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// New creates a controller writing to reg.
//
// Parameters:
//   - reg: Registry whose snapshot the controller replaces
//   - opts: Optional logger and metrics
//
// Returns:
//   - *Controller: Controller ready to load the first document
func New(reg *registry.Registry, opts ...Option) *Controller {
	c := &Controller{
		registry:  reg,
		observers: xsync.NewMap[uint64, types.Observer](),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.metrics == nil {
		c.metrics = metrics.NewNop()
	}

	return c
}

// Registry returns the registry the controller writes to.
func (c *Controller) Registry() *registry.Registry {
	return c.registry
}

// Load installs the first document as version 1.
//
// Returns:
//   - types.UpdateResult: Every feature reported as added
//   - error: types.ErrAlreadyLoaded if a document is already active
func (c *Controller) Load(doc *types.Document) (types.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registry.Load() != nil {
		c.metrics.RecordUpdate(false, 0, 0)
		return types.UpdateResult{}, types.ErrAlreadyLoaded
	}

	return c.apply(doc)
}

// ApplyUpdate replaces the active document with doc as the next version.
//
// On an uninitialized controller it behaves like Load. The swap is atomic:
// readers observe either the old or the new snapshot, never a mix. Observers
// are notified synchronously after the swap.
//
// Parameters:
//   - doc: Parsed document (from the document package)
//
// Returns:
//   - types.UpdateResult: Versions, per-feature changes and document warnings
//   - error: Non-nil only when doc is nil; the previous snapshot stays active
func (c *Controller) ApplyUpdate(doc *types.Document) (types.UpdateResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.apply(doc)
}

func (c *Controller) apply(doc *types.Document) (types.UpdateResult, error) {
	start := time.Now()

	if doc == nil {
		c.metrics.RecordUpdate(false, 0, time.Since(start).Seconds())
		return types.UpdateResult{}, fmt.Errorf("%w: nil document", types.ErrValidation)
	}

	prev := c.registry.Load()

	var (
		prevVersion uint64
		prevDoc     *types.Document
	)
	if prev != nil {
		prevVersion = prev.Version()
		prevDoc = prev.Document()
	}

	next := c.registry.Build(doc, prevVersion+1)
	result := types.UpdateResult{
		PreviousVersion: prevVersion,
		Version:         next.Version(),
		Changes:         Diff(prevDoc, doc),
		Warnings:        slices.Clone(doc.Warnings),
	}

	c.registry.Swap(next)

	c.metrics.RecordUpdate(true, len(result.Changes), time.Since(start).Seconds())
	c.metrics.SetConfigVersion(result.Version)
	c.metrics.SetActiveFeatures(len(doc.Features))

	c.logger.Info("configuration applied",
		"version", result.Version,
		"previous_version", result.PreviousVersion,
		"features", len(doc.Features),
		"changes", len(result.Changes),
		"warnings", len(result.Warnings),
	)

	c.notify(result)

	return result, nil
}

// Subscribe registers an observer for successful updates.
//
// Returns:
//   - func(): Unsubscribe function; safe to call more than once
//
// Example:
//
//	unsubscribe := c.Subscribe(types.ObserverFunc(func(r types.UpdateResult) {
//	    log.Printf("now at version %d", r.Version)
//	}))
//	defer unsubscribe()
func (c *Controller) Subscribe(obs types.Observer) func() {
	if obs == nil {
		return func() {}
	}

	id := c.nextObserverID.Add(1)
	c.observers.Store(id, obs)

	return func() {
		c.observers.Delete(id)
	}
}

func (c *Controller) notify(result types.UpdateResult) {
	c.observers.Range(func(id uint64, obs types.Observer) bool {
		c.safeNotify(id, obs, result)
		return true
	})
}

func (c *Controller) safeNotify(id uint64, obs types.Observer, result types.UpdateResult) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("observer panicked",
				"observer_id", id,
				"version", result.Version,
				"panic", r,
			)
		}
	}()

	obs.OnUpdate(result)
}

// Diff reports how each feature differs between prev and next.
//
// Either document may be nil (treated as empty). Unchanged features are
// omitted and the result is sorted by feature name. Biases are compared by
// their effective weights, so a fallback that yields the same split as
// before is not a change.
func Diff(prev, next *types.Document) []types.FeatureChange {
	prevByName := indexByName(prev)
	nextByName := indexByName(next)

	names := make([]string, 0, len(prevByName)+len(nextByName))
	for name := range prevByName {
		names = append(names, name)
	}
	for name := range nextByName {
		if _, ok := prevByName[name]; !ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	var changes []types.FeatureChange
	for _, name := range names {
		if kind := diffFeature(prevByName[name], nextByName[name]); kind != 0 {
			changes = append(changes, types.FeatureChange{Feature: name, Kind: kind})
		}
	}

	return changes
}

func diffFeature(a, b *types.Feature) types.ChangeKind {
	switch {
	case a == nil:
		return types.ChangeAdded
	case b == nil:
		return types.ChangeRemoved
	}

	var kind types.ChangeKind
	if a.Enabled != b.Enabled {
		kind |= types.ChangeEnabled
	}
	if !slices.Equal(a.Weights, b.Weights) {
		kind |= types.ChangeBiases
	}
	if !slices.Equal(a.Variations, b.Variations) {
		kind |= types.ChangeVariations
	}
	if !slices.Equal(a.Labels, b.Labels) {
		kind |= types.ChangeLabels
	}

	return kind
}

func indexByName(doc *types.Document) map[string]*types.Feature {
	if doc == nil {
		return nil
	}

	m := make(map[string]*types.Feature, len(doc.Features))
	for i := range doc.Features {
		m[doc.Features[i].Name] = &doc.Features[i]
	}

	return m
}
