// Package backoff computes retry delays.
package backoff

import (
	rand "math/rand/v2"
	"time"
)

// Policy describes a decorrelated jitter backoff with a cap.
// See: https://aws.amazon.com/blogs/architecture/exponential-backoff-and-jitter/
type Policy struct {
	// Base is the first delay and the lower bound of every delay.
	Base time.Duration

	// Multiplier grows the upper bound from the previous delay.
	Multiplier float64

	// Cap bounds every delay. 0 means unbounded.
	Cap time.Duration

	// Seed makes the sequence deterministic when non-zero.
	Seed int64
}

// Backoff produces successive delays for one retry loop. Not safe for
// concurrent use.
type Backoff struct {
	policy Policy
	rng    *rand.Rand
	prev   time.Duration
}

// New creates a Backoff for policy.
func New(policy Policy) *Backoff {
	return &Backoff{policy: policy, rng: newRNG(policy.Seed)}
}

// Next returns the next delay.
func (b *Backoff) Next() time.Duration {
	b.prev = Jitter(b.prev, b.policy.Base, b.policy.Multiplier, b.policy.Cap, b.rng)

	return b.prev
}

// Reset starts the sequence over from Base.
func (b *Backoff) Reset() {
	b.prev = 0
}

// Jitter computes the delay following prev:
//
//	next = min(cap, base + rand(prev*multiplier - base))
//
// Behavior:
//   - If prev <= 0, start from base
//   - Multiplier < 1.0 falls back to 1.0 (no growth)
//   - Cap < base returns cap
//
// A nil rng uses the package-level generator.
func Jitter(prev, base time.Duration, mult float64, capDur time.Duration, rng *rand.Rand) time.Duration {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	if mult < 1.0 {
		mult = 1.0
	}
	if capDur > 0 && capDur < base {
		return capDur
	}

	if prev <= 0 {
		return base
	}

	spread := time.Duration(float64(prev)*mult) - base
	if spread <= 0 {
		spread = base
	}

	var jitter int64
	if rng != nil {
		jitter = rng.Int64N(int64(spread))
	} else {
		jitter = rand.Int64N(int64(spread)) //nolint:gosec // non-crypto backoff jitter
	}

	next := base + time.Duration(jitter)
	if capDur > 0 && next > capDur {
		return capDur
	}

	return next
}

// newRNG returns a deterministic generator only for a non-zero seed, so
// production jitter uses the cheap package-level generator.
//
//nolint:gosec
func newRNG(seed int64) *rand.Rand {
	if seed == 0 {
		return nil
	}
	s1 := uint64(seed)
	s2 := s1 ^ 0x9e3779b97f4a7c15

	return rand.New(rand.NewPCG(s1, s2))
}
