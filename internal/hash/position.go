// Package hash derives stable bucket positions for subjects.
//
// A position is an integer in [0, Scale). It depends only on the subject ID,
// the feature name and the seed, so the same subject always lands at the
// same position for a feature regardless of what else the configuration
// contains, and unrelated features bucket independently.
package hash

import (
	"math/bits"

	"github.com/zeebo/xxh3"
)

// Scale is the size of the position space. Biases are percentages, so
// positions are integer percentiles.
const Scale = 100

// Position returns the bucket position of subjectID within feature.
//
// The feature name is hashed first (seeded when seed != 0) and its hash seeds
// the hash of the subject ID. Folding the two keys this way avoids building a
// concatenated string and keeps ("ab", "c") distinct from ("a", "bc").
// The 64-bit result is reduced to [0, Scale) with a multiply-high, which
// keeps the high-quality top bits of xxh3 instead of the low ones a modulo
// would use.
//
// Parameters:
//   - subjectID: Stable subject identifier
//   - feature: Feature name
//   - seed: Hash seed (0 means unseeded)
//
// Returns:
//   - int: Position in [0, Scale)
func Position(subjectID, feature string, seed uint64) int {
	hi, _ := bits.Mul64(Sum(subjectID, feature, seed), Scale)

	return int(hi) //nolint:gosec // hi < Scale
}

// Sum returns the raw 64-bit hash that Position reduces.
func Sum(subjectID, feature string, seed uint64) uint64 {
	var h uint64
	if seed != 0 {
		h = xxh3.HashStringSeed(feature, seed)
	} else {
		h = xxh3.HashString(feature)
	}

	return xxh3.HashStringSeed(subjectID, h)
}
