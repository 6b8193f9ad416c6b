// Package naive implements the brute-force, full-domain-enumeration
// baseline the distinguished-point engine is checked against: build a
// table keyed by range value while enumerating the domain, then return
// the first pair the caller's predicate accepts. The table holds one
// domain value per range value, so only pairs that involve that stored
// value are tested: when a range value has three or more preimages,
// some of its pairs are never passed to the predicate. It exists to be
// slow and simple rather than efficient.
package naive

import (
	"fmt"

	"github.com/kargakis/vowmitm/pkg/problem"
)

// MaxDomainBits bounds how wide a domain this package is willing to
// enumerate; beyond it the backing map would need more memory than
// any reasonable test or verification run should ask for.
const MaxDomainBits = 28

// Result is a confirmed golden pair, or Found == false if the full
// domain was scanned without finding one.
type Result struct {
	X0, X1 uint64
	Found  bool
}

// Search enumerates p's entire domain and returns the first golden
// pair it finds, used as the ground truth a distinguished-point
// search is verified against. For a collision it pairs the first
// preimage of each range value with every later one; for a claw it
// pairs the last f-preimage of each range value with every matching
// g-preimage.
func Search(p *problem.Problem) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.N > MaxDomainBits {
		return nil, fmt.Errorf("naive: domain width n=%d exceeds the %d-bit enumeration limit", p.N, MaxDomainBits)
	}

	domainSize := uint64(1) << p.N
	rangeMask := p.RangeMask()

	if !p.IsClaw() {
		return searchCollision(p, domainSize, rangeMask)
	}
	return searchClaw(p, domainSize, rangeMask)
}

func searchCollision(p *problem.Problem, domainSize, rangeMask uint64) (*Result, error) {
	seen := make(map[uint64]uint64, domainSize)
	for x := uint64(0); x < domainSize; x++ {
		y := p.F(x) & rangeMask
		prev, ok := seen[y]
		if !ok {
			seen[y] = x
			continue
		}
		if prev == x {
			continue
		}
		a, b := prev, x
		if a > b {
			a, b = b, a
		}
		if p.IsGoodPair(a, b) {
			return &Result{X0: a, X1: b, Found: true}, nil
		}
	}
	return &Result{Found: false}, nil
}

func searchClaw(p *problem.Problem, domainSize, rangeMask uint64) (*Result, error) {
	fTable := make(map[uint64]uint64, domainSize)
	for x := uint64(0); x < domainSize; x++ {
		fTable[p.F(x)&rangeMask] = x
	}

	for x := uint64(0); x < domainSize; x++ {
		y := p.G(x) & rangeMask
		fx, ok := fTable[y]
		if !ok {
			continue
		}
		if p.IsGoodPair(fx, x) {
			return &Result{X0: fx, X1: x, Found: true}, nil
		}
	}
	return &Result{Found: false}, nil
}
