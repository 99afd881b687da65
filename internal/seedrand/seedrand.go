// Package seedrand provides a deterministic pseudo-random stream derived
// from a string seed. Two generators built from identical seed strings
// produce bit-identical sequences for identical call sequences, which makes
// every randomized decision in a recap build reproducible.
//
// Seed strings are pipe-delimited identifier chains plus a purpose tag
// (e.g. "user|2025-01-01|daily|gate") so unrelated decisions draw from
// independent streams. There is no package-level generator: callers
// construct one per decision and pass it down.
package seedrand

import "hash/fnv"

// Rand is a seeded xorshift64* generator. Not safe for concurrent use;
// construct one per call site instead of sharing.
type Rand struct {
	state uint64
}

// New returns a generator seeded from the FNV-1a hash of seed, mixed
// through SplitMix64 so similar seed strings diverge immediately.
func New(seed string) *Rand {
	h := fnv.New64a()
	h.Write([]byte(seed))
	s := splitmix64(h.Sum64())
	if s == 0 {
		s = 0x9e3779b97f4a7c15
	}
	return &Rand{state: s}
}

// Join builds a pipe-delimited seed string from its parts.
func Join(parts ...string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "|"
		}
		out += p
	}
	return out
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

func (r *Rand) next() uint64 {
	x := r.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.state = x
	return x * 0x2545f4914f6cdd1d
}

// Float64 returns a float in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.next()>>11) / (1 << 53)
}

// IntRange returns an int in [min, max], inclusive on both ends.
// Returns min when max <= min.
func (r *Rand) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	span := uint64(max - min + 1)
	return min + int(r.next()%span)
}

// FloatRange returns a float in [min, max).
func (r *Rand) FloatRange(min, max float64) float64 {
	return min + r.Float64()*(max-min)
}

// Chance returns true with probability p. p <= 0 is never, p >= 1 is always.
func (r *Rand) Chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.Float64() < p
}

// Shuffle permutes s in place using Fisher-Yates.
func Shuffle[T any](r *Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.IntRange(0, i)
		s[i], s[j] = s[j], s[i]
	}
}

// Pick returns a uniformly chosen element of s. Panics on an empty slice;
// callers guard for emptiness themselves.
func Pick[T any](r *Rand, s []T) T {
	return s[r.IntRange(0, len(s)-1)]
}

// Sample returns k distinct elements of s in random order, or a shuffled
// copy of all of s when k >= len(s). The input is never modified.
func Sample[T any](r *Rand, s []T, k int) []T {
	cp := make([]T, len(s))
	copy(cp, s)
	Shuffle(r, cp)
	if k < 0 {
		k = 0
	}
	if k > len(cp) {
		k = len(cp)
	}
	return cp[:k]
}
