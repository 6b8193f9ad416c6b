// Package resolve turns a dictionary hit (two distinguished-point
// chains sharing an endpoint digest) into either a confirmed
// colliding pair of predecessor states or a verdict that the "hit"
// was a truncated-key false positive or a self-collision.
//
// The walk-back replays the longer chain until its remaining length
// matches the shorter one, then steps both in lockstep watching for
// the point where their successors first agree.
package resolve

import "github.com/kargakis/vowmitm/pkg/problem"

// Verdict classifies what WalkBack found.
type Verdict int

const (
	// Collided means a and b are genuine distinct predecessors whose
	// next step lands on the same state.
	Collided Verdict = iota
	// SelfMerge means the two chains were already equal before
	// either endpoint, i.e. one seed's chain ran into the other's:
	// not a collision between independent chains, just the same walk
	// observed twice.
	SelfMerge
	// NoMatch means the chains never actually meet, meaning the
	// dictionary hit was a truncated-key false positive and the
	// endpoints merely share a digest.
	NoMatch
)

// Result is the outcome of walking two chains back to their meeting
// point.
type Result struct {
	A, B    uint64
	Verdict Verdict
}

// WalkBack replays the two chains recorded by the dictionary,
// (seedA, lenA) and (seedB, lenB), both under the same mixing
// version, until it finds the predecessor pair whose single next
// step coincides, or concludes no such pair exists.
func WalkBack(w problem.Wrapper, version uint64, seedA uint64, lenA uint64, seedB uint64, lenB uint64) Result {
	xa, la := seedA, lenA
	xb, lb := seedB, lenB
	if la < lb {
		xa, xb = xb, xa
		la, lb = lb, la
	}

	// Fast-forward the longer chain so both have the same number of
	// steps remaining to their recorded endpoint.
	for ; la > lb; la-- {
		xa = w.MixF(version, xa)
	}

	for step := uint64(0); step < lb; step++ {
		if xa == xb {
			return Result{A: xa, B: xb, Verdict: SelfMerge}
		}
		na, nb := w.MixF(version, xa), w.MixF(version, xb)
		if na == nb {
			return Result{A: xa, B: xb, Verdict: Collided}
		}
		xa, xb = na, nb
	}

	if xa == xb {
		return Result{A: xa, B: xb, Verdict: SelfMerge}
	}
	return Result{Verdict: NoMatch}
}

// ShouldEvict decides, in the Robin Hood sense, whether a freshly
// computed chain of length candidateLen should displace an existing
// dictionary entry of length existingLen recorded under the same
// truncated key. Shorter chains are cheaper to recompute during a
// future walk-back, so the table keeps the shorter of the two: a
// shorter candidate overwrites the existing record, and a longer or
// equal one is not inserted.
func ShouldEvict(existingLen, candidateLen uint64) bool {
	return candidateLen < existingLen
}
