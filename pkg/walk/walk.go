// Package walk implements the distinguished-point chain walk at the
// core of the vOW search: starting from a seed, repeatedly apply the
// problem's mixing function until a distinguishing property is met or
// a length cap is hit.
//
// The walker itself is function-shaped rather than object-shaped: it
// owns no state beyond its arguments and call stack, so the engine
// can run arbitrarily many of these concurrently over a shared,
// read-only Wrapper.
package walk

import "github.com/kargakis/vowmitm/pkg/problem"

// Predicate decides whether a chain state is distinguished. Predicate
// must be a pure function of x alone so two workers walking the same
// chain independently (e.g. during collision resolution) agree on
// where it would have stopped.
type Predicate func(x uint64) bool

// TrailingZeros returns a Predicate marking x distinguished when its
// low theta bits are all zero, the textbook DP definition: a fraction
// 2^-theta of the state space is distinguished, which in turn sets
// the expected chain length to 2^theta.
func TrailingZeros(theta uint8) Predicate {
	if theta == 0 {
		return func(x uint64) bool { return true }
	}
	mask := uint64(1)<<theta - 1
	return func(x uint64) bool {
		return x&mask == 0
	}
}

// Outcome reports why a walk stopped.
type Outcome int

const (
	// Distinguished means the walk reached a distinguished point
	// within maxLen steps.
	Distinguished Outcome = iota
	// TooLong means the walk exceeded maxLen steps without reaching a
	// distinguished point, almost always evidence of a short cycle
	// that the chain fell into; the caller should discard the chain
	// rather than trust its endpoint.
	TooLong
)

// Result is the outcome of walking one chain to its distinguished
// point (or giving up).
type Result struct {
	Endpoint uint64
	Length   uint64
	Outcome  Outcome
}

// ToDistinguishedPoint walks the chain seeded at seed under mixing
// version, returning the digest of the first distinguished state
// reached (Hash applied to the raw range state) and the number of
// steps taken to reach it. maxLen bounds the walk so a chain caught
// in a short cycle (which, absent a length cap, would spin forever)
// is instead reported as TooLong.
func ToDistinguishedPoint(w problem.Wrapper, version, seed uint64, isDistinguished Predicate, maxLen uint64) Result {
	x := seed
	for steps := uint64(0); steps < maxLen; steps++ {
		x = w.MixF(version, x)
		digest := w.Hash(x)
		if isDistinguished(digest) {
			return Result{Endpoint: digest, Length: steps + 1, Outcome: Distinguished}
		}
	}
	return Result{Endpoint: w.Hash(x), Length: maxLen, Outcome: TooLong}
}

// Step applies the mixing function once, exposed so the collision
// resolver can replay a chain step by step without re-implementing
// the loop body.
func Step(w problem.Wrapper, version, x uint64) uint64 {
	return w.MixF(version, x)
}
