package naive

import (
	"testing"

	"github.com/kargakis/vowmitm/pkg/problem"
)

func TestSearchCollisionFindsKnownPair(t *testing.T) {
	// f folds the top bit away, so every x and x+8 (for an 8-value
	// domain of width 3... use width 4, domain 16) collide in pairs.
	f := func(x uint64) uint64 { return x & 0x7 }
	p := &problem.Problem{N: 4, M: 3, F: f, IsGoodPair: func(a, b uint64) bool { return b-a == 8 }}

	res, err := Search(p)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found {
		t.Fatal("expected a collision to be found")
	}
	if f(res.X0) != f(res.X1) {
		t.Errorf("reported pair is not actually a collision: f(%d)=%d f(%d)=%d", res.X0, f(res.X0), res.X1, f(res.X1))
	}
}

func TestSearchCollisionReportsNotFound(t *testing.T) {
	f := func(x uint64) uint64 { return x } // injective: no collisions at all
	p := &problem.Problem{N: 6, M: 6, F: f, IsGoodPair: func(a, b uint64) bool { return true }}

	res, err := Search(p)
	if err != nil {
		t.Fatal(err)
	}
	if res.Found {
		t.Fatal("expected no collision for an injective function")
	}
}

func TestSearchClawFindsKnownPair(t *testing.T) {
	f := func(x uint64) uint64 { return x }
	g := func(x uint64) uint64 { return x ^ 0x1 }
	p := &problem.Problem{
		N: 6, M: 6, F: f, G: g,
		IsGoodPair: func(a, b uint64) bool { return true },
	}

	res, err := Search(p)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found {
		t.Fatal("expected a claw to be found")
	}
	if f(res.X0) != g(res.X1) {
		t.Errorf("reported pair is not actually a claw: f(%d)=%d g(%d)=%d", res.X0, f(res.X0), res.X1, g(res.X1))
	}
}

func TestSearchRejectsOversizedDomain(t *testing.T) {
	p := &problem.Problem{N: 40, M: 40, F: func(x uint64) uint64 { return x }, IsGoodPair: func(a, b uint64) bool { return true }}
	if _, err := Search(p); err == nil {
		t.Error("expected an error for a domain wider than the enumeration limit")
	}
}
