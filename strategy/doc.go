// Package strategy provides built-in assignment strategy implementations.
//
// Assignment strategies decide which variation of a feature a subject
// receives. The package includes:
//
//   - Weighted: Deterministic weighted bucketing (default)
//   - Override: Pinned variations for listed subjects, delegating the rest
//
// # Weighted bucketing
//
// A subject's position in [0,100) is derived from xxh3 over the feature name
// and the subject ID. The position is mapped to a variation by walking the
// cumulative distribution of the feature's effective weights; every bucket is
// a half-open interval [lower, upper), so a position on a boundary belongs to
// the next bucket. Weights must total exactly 100 for the buckets to tile the
// position space, which the document parser guarantees by falling back to a
// uniform split.
//
// Changing a feature's weights moves boundaries, so subjects near a moved
// boundary change variation. Positions themselves never move, which means a
// rollout from [90,10] to [50,50] only moves subjects out of the shrinking
// bucket.
//
// Custom strategies can be implemented by satisfying the types.AssignmentStrategy interface.
package strategy
