package engine

import (
	"context"
	"testing"
	"time"

	"github.com/kargakis/vowmitm/pkg/problem"
)

func mix16(x uint64) uint64 {
	x &= 0xFFFF
	x = x*2654435761 + 1013904223
	return x & 0xFFFF
}

// fold16 drops x's lowest bit before mixing, so every pair (2k, 2k+1)
// collides. mix16 alone is a bijection on 16 bits and has no
// collisions to find.
func fold16(x uint64) uint64 {
	return mix16(x >> 1)
}

func TestCollisionSearchFindsConfirmedPair(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	params := Parameters{
		Theta:        4,
		DictCapacity: 1024,
		MaxChainLen:  1 << 12,
		MaxVersions:  500,
		Seed:         1,
	}

	res, err := CollisionSearch(ctx, fold16, 16, func(a, b uint64) bool { return true }, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.X0 == res.X1 {
		t.Fatalf("expected distinct inputs, got x0=x1=%d", res.X0)
	}
	if fold16(res.X0) != fold16(res.X1) {
		t.Fatalf("result is not actually a collision: f(%d)=%d f(%d)=%d",
			res.X0, fold16(res.X0), res.X1, fold16(res.X1))
	}
	if res.Stats.Chains == 0 {
		t.Error("expected non-zero chain count in stats")
	}
}

func TestSearchRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &problem.Problem{N: 16, M: 16, F: mix16, IsGoodPair: func(a, b uint64) bool { return true }}
	_, err := Search(ctx, p, Parameters{DictCapacity: 64, MaxChainLen: 1 << 10})
	if err == nil {
		t.Fatal("expected an error from an already-cancelled context")
	}
}

func TestSearchReturnsErrExhaustedWhenImpossible(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// A predicate that can never be satisfied forces the engine to
	// burn through every version before giving up.
	p := &problem.Problem{
		N: 8, M: 8,
		F:          func(x uint64) uint64 { return x & 0xFF },
		IsGoodPair: func(a, b uint64) bool { return false },
	}
	_, err := Search(ctx, p, Parameters{Theta: 2, DictCapacity: 32, MaxChainLen: 256, MaxVersions: 3, Seed: 7})
	if err != ErrExhausted {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestClawSearchFindsConfirmedPair(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	f := func(x uint64) uint64 { return mix16(x) }
	g := func(x uint64) uint64 { return mix16(x ^ 0x55) }

	params := Parameters{
		Theta:        4,
		DictCapacity: 1024,
		MaxChainLen:  1 << 12,
		MaxVersions:  500,
		Seed:         3,
	}

	res, err := ClawSearch(ctx, f, g, 16, 16, func(a, b uint64) bool { return true }, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f(res.X0) != g(res.X1) {
		t.Fatalf("result is not actually a claw: f(%d)=%d g(%d)=%d", res.X0, f(res.X0), res.X1, g(res.X1))
	}
}
