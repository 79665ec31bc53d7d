package hash

import (
	"errors"
	"fmt"
	"slices"
)

// Bound is one half-open bucket interval [Lower, Upper).
type Bound struct {
	Lower int
	Upper int
}

// Width returns the number of positions covered by the bound.
func (b Bound) Width() int {
	return b.Upper - b.Lower
}

// Contains reports whether position falls inside the half-open interval.
func (b Bound) Contains(position int) bool {
	return position >= b.Lower && position < b.Upper
}

// Buckets maps positions to variation indexes by walking the cumulative
// distribution of the weights.
//
// Bucket i covers [sum(w[:i]), sum(w[:i+1])). A position equal to a boundary
// belongs to the upper bucket, and a zero-width bucket is never selected.
// When the weights sum to Scale the buckets tile [0, Scale) with no gaps or
// overlaps.
type Buckets struct {
	upper []int
}

// NewBuckets builds the cumulative bucket table for weights.
//
// Negative weights are treated as zero. Callers are expected to pass
// validated weights; this only guards the table's monotonicity.
func NewBuckets(weights []int) *Buckets {
	upper := make([]int, len(weights))
	total := 0
	for i, w := range weights {
		if w > 0 {
			total += w
		}
		upper[i] = total
	}

	return &Buckets{upper: upper}
}

// Len returns the number of buckets.
func (b *Buckets) Len() int {
	return len(b.upper)
}

// Total returns the sum of the weights.
func (b *Buckets) Total() int {
	if len(b.upper) == 0 {
		return 0
	}

	return b.upper[len(b.upper)-1]
}

// Index returns the bucket containing position, or -1 when position lies
// outside [0, Total()).
func (b *Buckets) Index(position int) int {
	if position < 0 || position >= b.Total() {
		return -1
	}

	// First bucket whose upper bound is strictly greater than position.
	idx, _ := slices.BinarySearch(b.upper, position+1)

	return idx
}

// Bounds returns the half-open interval of every bucket in order.
func (b *Buckets) Bounds() []Bound {
	bounds := make([]Bound, len(b.upper))
	lower := 0
	for i, u := range b.upper {
		bounds[i] = Bound{Lower: lower, Upper: u}
		lower = u
	}

	return bounds
}

// Validate checks that the buckets tile [0, Scale) exactly.
func (b *Buckets) Validate() error {
	if len(b.upper) == 0 {
		return errors.New("no buckets")
	}
	if total := b.Total(); total != Scale {
		return fmt.Errorf("buckets cover [0,%d), want [0,%d)", total, Scale)
	}

	return nil
}

// Uniform returns n weights that split Scale as evenly as possible.
//
// Each weight is Scale/n; the remainder Scale%n is handed out one point at a
// time to the leading weights, so the result always sums to Scale and is
// deterministic for a given n.
//
// Example:
//
//	Uniform(3) // [34 33 33]
func Uniform(n int) []int {
	if n <= 0 {
		return nil
	}

	weights := make([]int, n)
	base, rem := Scale/n, Scale%n
	for i := range weights {
		weights[i] = base
		if i < rem {
			weights[i]++
		}
	}

	return weights
}
