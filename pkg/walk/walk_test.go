package walk

import (
	"testing"

	"github.com/kargakis/vowmitm/pkg/problem"
)

func identityProblem(theta uint8) problem.Wrapper {
	p := &problem.Problem{
		N: 16, M: 16,
		F:          func(x uint64) uint64 { return (x*2654435761 + 1) & 0xFFFF },
		IsGoodPair: func(a, b uint64) bool { return true },
	}
	w, err := problem.NewWrapper(p)
	if err != nil {
		panic(err)
	}
	return w
}

func TestTrailingZerosPredicate(t *testing.T) {
	pred := TrailingZeros(4)
	if !pred(0b10000) {
		t.Error("expected a multiple of 16 to be distinguished")
	}
	if pred(0b10001) {
		t.Error("expected an odd number to not be distinguished")
	}
}

func TestTrailingZerosZeroThetaAlwaysDistinguished(t *testing.T) {
	pred := TrailingZeros(0)
	if !pred(12345) {
		t.Error("expected theta=0 to mark every point distinguished")
	}
}

func TestToDistinguishedPointStopsAtPredicate(t *testing.T) {
	w := identityProblem(4)
	pred := TrailingZeros(4)

	res := ToDistinguishedPoint(w, 0x1111, 42, pred, 1<<20)
	if res.Outcome != Distinguished {
		t.Fatalf("expected Distinguished outcome, got %v", res.Outcome)
	}
	if !pred(res.Endpoint) {
		t.Errorf("endpoint %#x does not satisfy the predicate", res.Endpoint)
	}
	if res.Length == 0 {
		t.Error("expected a positive chain length")
	}
}

func TestToDistinguishedPointReportsTooLong(t *testing.T) {
	w := identityProblem(4)
	neverDistinguished := func(x uint64) bool { return false }

	res := ToDistinguishedPoint(w, 0x1111, 42, neverDistinguished, 10)
	if res.Outcome != TooLong {
		t.Fatalf("expected TooLong outcome, got %v", res.Outcome)
	}
	if res.Length != 10 {
		t.Errorf("expected length capped at 10, got %d", res.Length)
	}
}

func TestWalkIsDeterministic(t *testing.T) {
	w1 := identityProblem(4)
	w2 := identityProblem(4)
	pred := TrailingZeros(4)

	r1 := ToDistinguishedPoint(w1, 0xabcd, 7, pred, 1<<20)
	r2 := ToDistinguishedPoint(w2, 0xabcd, 7, pred, 1<<20)
	if r1.Endpoint != r2.Endpoint || r1.Length != r2.Length {
		t.Errorf("expected identical walks to agree, got %+v vs %+v", r1, r2)
	}
}

func TestStepMatchesMixF(t *testing.T) {
	w := identityProblem(4)
	direct := w.MixF(5, 9)
	via := Step(identityProblem(4), 5, 9)
	if direct != via {
		t.Errorf("expected Step to match a direct MixF call, got %d vs %d", via, direct)
	}
}
