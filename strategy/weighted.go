package strategy

import (
	"github.com/arloliu/rollout/internal/hash"
	"github.com/arloliu/rollout/internal/logging"
	"github.com/arloliu/rollout/types"
)

// Weighted implements deterministic weighted bucketing.
type Weighted struct {
	hashSeed uint64
	logger   types.Logger
}

var _ types.AssignmentStrategy = (*Weighted)(nil)

// WeightedOption configures a Weighted strategy.
type WeightedOption func(*Weighted)

// NewWeighted creates a new weighted bucketing strategy.
//
// Parameters:
//   - opts: Optional configuration (WithHashSeed, WithLogger)
//
// Returns:
//   - *Weighted: Initialized strategy ready for use.
//
// Example:
//
//	s := strategy.NewWeighted(strategy.WithHashSeed(7))
//	idx := s.Assign(subjectID, feature)
func NewWeighted(opts ...WeightedOption) *Weighted {
	w := &Weighted{
		logger: logging.NewNop(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	if w.logger == nil {
		w.logger = logging.NewNop()
	}

	return w
}

// WithHashSeed sets the hash seed. Changing the seed reshuffles every subject,
// so it must stay fixed for the lifetime of an experiment.
func WithHashSeed(seed uint64) WeightedOption {
	return func(w *Weighted) {
		w.hashSeed = seed
	}
}

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(logger types.Logger) WeightedOption {
	return func(w *Weighted) {
		w.logger = logger
	}
}

// Seed returns the configured hash seed.
func (w *Weighted) Seed() uint64 {
	return w.hashSeed
}

// Assign returns the variation index for subjectID.
//
// Algorithm:
//  1. Fail closed: a nil or disabled feature gets no assignment
//  2. A feature without variations is a plain flag: no assignment
//  3. Derive the subject's position in [0,100) from (feature name, subject ID)
//  4. Return the first bucket whose upper bound exceeds the position
//
// Features built by hand without effective weights (or with weights that do
// not match the variation count) are bucketed uniformly.
//
// Parameters:
//   - subjectID: Stable subject identifier
//   - feature: Feature definition
//
// Returns:
//   - int: Variation index, or types.NoVariation
func (w *Weighted) Assign(subjectID string, feature *types.Feature) int {
	if feature == nil || !feature.Enabled || len(feature.Variations) == 0 {
		return types.NoVariation
	}

	weights := feature.Weights
	if len(weights) != len(feature.Variations) {
		weights = hash.Uniform(len(feature.Variations))
	}

	return w.AssignBuckets(subjectID, feature, hash.NewBuckets(weights))
}

// AssignBuckets is Assign with a bucket table already built from the
// feature's effective weights. Snapshots call it with the table they
// precompute per feature, so a memo miss does not rebuild it.
func (w *Weighted) AssignBuckets(subjectID string, feature *types.Feature, buckets *hash.Buckets) int {
	if feature == nil || !feature.Enabled || buckets == nil {
		return types.NoVariation
	}

	position := hash.Position(subjectID, feature.Name, w.hashSeed)
	idx := buckets.Index(position)
	if idx < 0 {
		// Weights total below 100 leave a gap at the top; only reachable
		// for hand-built features that bypassed the parser.
		w.logger.Debug("position outside bucket range",
			"feature", feature.Name,
			"position", position,
		)

		return types.NoVariation
	}

	return idx
}

// Position exposes the bucket position for subjectID within feature.
//
// Useful for hosts and tooling that need to explain a decision.
func (w *Weighted) Position(subjectID, feature string) int {
	return hash.Position(subjectID, feature, w.hashSeed)
}
