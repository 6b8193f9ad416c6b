// Package engine runs the sequential vOW search: generate chains
// under the current version, park their distinguished endpoints in a
// fixed-capacity dictionary, and walk back every digest collision
// until a golden pair is confirmed or the caller's budget runs out.
//
// This is the single-goroutine reference engine the distributed
// package's sender/receiver pipeline specializes; its control flow
// is the one to read first.
package engine

import (
	"context"
	"errors"

	"github.com/kargakis/vowmitm/pkg/dict"
	"github.com/kargakis/vowmitm/pkg/problem"
	"github.com/kargakis/vowmitm/pkg/resolve"
	"github.com/kargakis/vowmitm/pkg/rng"
	"github.com/kargakis/vowmitm/pkg/sysinfo"
	"github.com/kargakis/vowmitm/pkg/walk"
)

// ErrExhausted is returned when the search runs out of versions
// without finding a golden pair.
var ErrExhausted = errors.New("engine: exhausted version budget without finding a golden pair")

// Parameters configures a search run. The zero value is valid: every
// field has an auto-derived default, matching the --ram-style
// "0 means probe the system" CLI convention cmd/mitmfind uses.
type Parameters struct {
	// Theta is the number of trailing zero bits a state needs to
	// count as distinguished. Zero selects theta automatically from
	// the range width.
	Theta uint8
	// DictCapacity is the number of dictionary slots. Zero derives a
	// capacity from sysinfo.AvailableMemory.
	DictCapacity uint64
	// MaxChainLen bounds a single walk before it is abandoned as
	// stuck in a cycle. Zero derives a bound from Theta.
	MaxChainLen uint64
	// MaxVersions bounds the number of dictionary epochs attempted
	// before giving up. Zero means unbounded (subject to ctx).
	MaxVersions uint64
	// Seed drives the engine's own chain-seed generator.
	Seed uint64
	// AttemptBudgetFactor bounds chain attempts per version at
	// AttemptBudgetFactor*DictCapacity, the vOW "10w DPs per version"
	// heuristic. Zero selects the default of 10.
	AttemptBudgetFactor uint64
	// AbandonFactor sets the chain-length abandonment bound at
	// AbandonFactor<<Theta. Zero selects the default of 40.
	AbandonFactor uint64
}

// Stats reports the work performed by a Search call, win or lose.
type Stats struct {
	Chains               uint64
	Collisions           uint64
	SameBranchRejections uint64
	PredicateRejections  uint64
	RobinHoodEvictions   uint64
	TooLong              uint64
	Versions             uint64
	Evaluations          uint64
}

// Result is a confirmed golden pair plus the stats gathered finding
// it.
type Result struct {
	X0, X1 uint64
	Stats  Stats
}

// AutoTheta picks half the range width in bits as the DP density,
// clamped to [1, 20]: the expected chain length 2^theta grows with the
// square root of the range size, up to 2^20 steps.
func AutoTheta(p *problem.Problem) uint8 {
	half := p.M / 2
	if half > 20 {
		return 20
	}
	if half == 0 {
		return 1
	}
	return half
}

// DefaultAbandonFactor is the k in the vOW chain-abandonment bound
// k*2^d: an upper bound on steps that makes the probability of
// missing a genuine distinguished point exponentially small.
const DefaultAbandonFactor = 40

// DefaultAttemptBudgetFactor is the vOW "10w DPs per version"
// heuristic: a version is abandoned after this many multiples of the
// dictionary capacity have been attempted without filling it.
const DefaultAttemptBudgetFactor = 10

// DefaultMaxChainLen derives a walk length cap from a DP density and
// an abandon factor, generous enough that a genuine distinguished
// point is reached long before a cycle would trip it.
func DefaultMaxChainLen(theta uint8, abandonFactor uint64) uint64 {
	return abandonFactor << theta
}

// DefaultCapacity derives a dictionary capacity from the system's
// available memory, split evenly across receivers.
func DefaultCapacity(receivers int) (uint64, error) {
	mem, err := sysinfo.AvailableMemory()
	if err != nil {
		return 0, err
	}
	return dict.Capacity(mem, receivers), nil
}

// Search runs the sequential engine to completion: it blocks until a
// golden pair is found, the context is cancelled, or MaxVersions
// epochs pass without one.
func Search(ctx context.Context, p *problem.Problem, params Parameters) (*Result, error) {
	w, err := problem.NewWrapper(p)
	if err != nil {
		return nil, err
	}

	theta := params.Theta
	if theta == 0 {
		theta = AutoTheta(p)
	}
	pred := walk.TrailingZeros(theta)

	abandonFactor := params.AbandonFactor
	if abandonFactor == 0 {
		abandonFactor = DefaultAbandonFactor
	}
	maxChainLen := params.MaxChainLen
	if maxChainLen == 0 {
		maxChainLen = DefaultMaxChainLen(theta, abandonFactor)
	}

	capacity := params.DictCapacity
	if capacity == 0 {
		capacity, err = DefaultCapacity(1)
		if err != nil {
			return nil, err
		}
	}
	d := dict.New(capacity)

	attemptBudgetFactor := params.AttemptBudgetFactor
	if attemptBudgetFactor == 0 {
		attemptBudgetFactor = DefaultAttemptBudgetFactor
	}
	attemptBudget := attemptBudgetFactor * capacity

	seeder := rng.NewSplitter(params.Seed)
	stateMask := p.RangeMask()

	var stats Stats
	var version uint64
	var attempts uint64

	advanceVersion := func() error {
		d.Clear()
		version++
		attempts = 0
		stats.Versions = version
		if params.MaxVersions > 0 && version >= params.MaxVersions {
			stats.Evaluations = w.NEval()
			return ErrExhausted
		}
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seed := seeder.Next() & stateMask
		wr := walk.ToDistinguishedPoint(w, version, seed, pred, maxChainLen)
		stats.Chains++
		attempts++
		full := false

		switch {
		case wr.Outcome == walk.TooLong:
			stats.TooLong++

		default:
			outcome, existing := d.InsertOrProbe(wr.Endpoint, seed, wr.Length)
			switch outcome {
			case dict.Full:
				full = true

			case dict.Candidate:
				stats.Collisions++
				result := resolve.WalkBack(w, version, existing.Seed, existing.Length, seed, wr.Length)

				if resolve.ShouldEvict(existing.Length, wr.Length) {
					d.Overwrite(wr.Endpoint, seed, wr.Length)
					stats.RobinHoodEvictions++
				}

				if result.Verdict == resolve.Collided {
					x0, x1, reason := w.MixGoodPair(version, result.A, result.B)
					switch reason {
					case problem.Accepted:
						stats.Evaluations = w.NEval()
						return &Result{X0: x0, X1: x1, Stats: stats}, nil
					case problem.SameBranch:
						stats.SameBranchRejections++
					case problem.PredicateFailed:
						stats.PredicateRejections++
					}
				}
			}
		}

		if full || attempts >= attemptBudget {
			if err := advanceVersion(); err != nil {
				return nil, err
			}
		}
	}
}

// CollisionSearch is a convenience entry point for the common
// single-function case: find x0 != x1 with f(x0) == f(x1) and
// isGoodPair(x0, x1).
func CollisionSearch(ctx context.Context, f problem.Func, n uint8, isGoodPair problem.GoodPairFunc, params Parameters) (*Result, error) {
	p := &problem.Problem{N: n, M: n, F: f, IsGoodPair: isGoodPair}
	return Search(ctx, p, params)
}

// ClawSearch is a convenience entry point for the two-function case:
// find x0, x1 with f(x0) == g(x1) and isGoodPair(x0, x1), for a
// domain of width n and a range of width m >= n.
func ClawSearch(ctx context.Context, f, g problem.Func, n, m uint8, isGoodPair problem.GoodPairFunc, params Parameters) (*Result, error) {
	p := &problem.Problem{N: n, M: m, F: f, G: g, IsGoodPair: isGoodPair}
	return Search(ctx, p, params)
}
