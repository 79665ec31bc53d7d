package registry

import (
	"fmt"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/arloliu/rollout/internal/hash"
	"github.com/arloliu/rollout/types"
)

// memoKey identifies one memoized assignment within a snapshot.
type memoKey struct {
	subject string
	feature string
}

// Snapshot is an immutable, versioned view of one configuration document.
//
// All lookups against a snapshot are consistent with each other. A snapshot
// owns its memo, so replacing the snapshot is what invalidates memoized
// assignments.
type Snapshot struct {
	version  uint64
	doc      *types.Document
	index    map[string]int
	buckets  []*hash.Buckets
	strategy types.AssignmentStrategy
	metrics  types.AssignmentMetrics

	memo      *xsync.Map[memoKey, int]
	memoLimit int
	memoSize  atomic.Int64
}

// Version returns the configuration version of the snapshot.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// Document returns the document the snapshot was built from.
//
// The returned document must not be modified.
func (s *Snapshot) Document() *types.Document {
	return s.doc
}

// Len returns the number of features.
func (s *Snapshot) Len() int {
	return len(s.doc.Features)
}

// MemoSize returns the number of memoized assignments.
func (s *Snapshot) MemoSize() int {
	return int(s.memoSize.Load())
}

// Named returns the feature with the given name.
//
// The returned feature must not be modified.
func (s *Snapshot) Named(name string) (*types.Feature, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}

	return &s.doc.Features[i], true
}

// Features returns deep copies of all features in configuration order.
func (s *Snapshot) Features() []types.Feature {
	out := make([]types.Feature, len(s.doc.Features))
	for i := range s.doc.Features {
		out[i] = s.doc.Features[i].Clone()
	}

	return out
}

// Bounds returns the bucket intervals of a feature's variations.
//
// Returns:
//   - []hash.Bound: One half-open interval per variation (nil for flags)
//   - bool: false if the feature is unknown
func (s *Snapshot) Bounds(name string) ([]hash.Bound, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	if s.buckets[i] == nil {
		return nil, true
	}

	return s.buckets[i].Bounds(), true
}

// Assignment returns the variation index for subject within feature name.
//
// A disabled feature, a feature without variations and an unknown feature
// all yield types.NoVariation.
func (s *Snapshot) Assignment(name, subject string) types.Assignment {
	a := types.Assignment{
		SubjectID:      subject,
		Feature:        name,
		VariationIndex: types.NoVariation,
		Version:        s.version,
	}

	if f, ok := s.Named(name); ok {
		a.VariationIndex = s.assign(f, subject)
	}

	return a
}

// IsEnabled reports whether feature name is on for subject.
//
// Rules:
//   - Unknown feature: false
//   - Plain flag, A/B test, multivariate test: the feature's enabled switch
//   - Binary feature test: enabled switch and the subject landed in "enabled"
func (s *Snapshot) IsEnabled(name, subject string) bool {
	f, ok := s.Named(name)
	if !ok {
		return false
	}

	return s.isEnabled(f, subject)
}

func (s *Snapshot) isEnabled(f *types.Feature, subject string) bool {
	if !f.Enabled {
		return false
	}
	if f.Kind != types.KindFeatureTest {
		return true
	}

	return s.assign(f, subject) == f.EnabledIndex()
}

// Variation returns the variation subject landed in for feature name.
//
// Returns:
//   - types.VariationRef: Index, name and label (if any) of the variation
//   - bool: false for unknown or disabled features and features without variations
func (s *Snapshot) Variation(name, subject string) (types.VariationRef, bool) {
	f, ok := s.Named(name)
	if !ok {
		return types.VariationRef{}, false
	}

	return s.variation(f, subject)
}

func (s *Snapshot) variation(f *types.Feature, subject string) (types.VariationRef, bool) {
	idx := s.assign(f, subject)
	if idx == types.NoVariation {
		return types.VariationRef{}, false
	}

	ref := types.VariationRef{Index: idx}
	ref.Name, _ = f.VariationName(idx)
	ref.Label, _ = f.Label(idx)

	return ref, true
}

// Label returns the label configured for variation idx of feature name.
func (s *Snapshot) Label(name string, idx int) (string, bool) {
	f, ok := s.Named(name)
	if !ok {
		return "", false
	}

	return f.Label(idx)
}

// Evaluate returns the full decision for subject within feature name.
//
// Returns:
//   - types.Decision: Evaluated decision
//   - error: types.ErrUnknownFeature if the feature is not configured
func (s *Snapshot) Evaluate(name, subject string) (types.Decision, error) {
	f, ok := s.Named(name)
	if !ok {
		return types.Decision{}, fmt.Errorf("%w: %q", types.ErrUnknownFeature, name)
	}

	d := types.Decision{
		Feature:   f.Name,
		SubjectID: subject,
		Kind:      f.Kind,
		Enabled:   s.isEnabled(f, subject),
		Version:   s.version,
	}
	if ref, ok := s.variation(f, subject); ok {
		d.Variation = &ref
	}

	return d, nil
}

// bucketAssigner is implemented by strategies that can reuse the bucket
// table a snapshot precomputes for each feature.
type bucketAssigner interface {
	AssignBuckets(subjectID string, feature *types.Feature, buckets *hash.Buckets) int
}

// assign runs the strategy for f, consulting the memo first. Every decision
// is counted, memoized or not.
func (s *Snapshot) assign(f *types.Feature, subject string) int {
	if !f.Enabled || len(f.Variations) == 0 {
		return types.NoVariation
	}

	idx := s.lookup(f, subject)

	name, _ := f.VariationName(idx)
	s.metrics.RecordAssignment(f.Name, name)

	return idx
}

func (s *Snapshot) lookup(f *types.Feature, subject string) int {
	if s.memo == nil {
		return s.compute(f, subject)
	}

	key := memoKey{subject: subject, feature: f.Name}
	if idx, ok := s.memo.Load(key); ok {
		s.metrics.RecordMemoLookup(true)
		return idx
	}
	s.metrics.RecordMemoLookup(false)

	idx := s.compute(f, subject)

	// The bound is soft: concurrent misses may overshoot it slightly.
	if s.memoSize.Load() < int64(s.memoLimit) {
		if _, loaded := s.memo.LoadOrStore(key, idx); !loaded {
			s.memoSize.Add(1)
		}
	}

	return idx
}

func (s *Snapshot) compute(f *types.Feature, subject string) int {
	if ba, ok := s.strategy.(bucketAssigner); ok {
		if i, ok := s.index[f.Name]; ok && &s.doc.Features[i] == f && s.buckets[i] != nil {
			return ba.AssignBuckets(subject, f, s.buckets[i])
		}
	}

	return s.strategy.Assign(subject, f)
}
