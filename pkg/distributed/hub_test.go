package distributed

import (
	"context"
	"testing"
	"time"
)

func TestHubSendRecvRoundTrip(t *testing.T) {
	hub := NewHub(2, 4)
	defer hub.Close()

	a := hub.Transport(0)
	b := hub.Transport(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := a.Send(ctx, 1, "hello"); err != nil {
		t.Fatal(err)
	}

	env, err := b.Recv(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if env.From != 0 {
		t.Errorf("expected From=0, got %d", env.From)
	}
	if env.Payload != "hello" {
		t.Errorf("expected payload 'hello', got %v", env.Payload)
	}
}

func TestTransportSendRejectsOutOfRangeRank(t *testing.T) {
	hub := NewHub(2, 4)
	defer hub.Close()
	a := hub.Transport(0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := a.Send(ctx, 99, "x"); err == nil {
		t.Error("expected an error sending to an out-of-range rank")
	}
}

func TestRecvAfterCloseReturnsErrClosed(t *testing.T) {
	hub := NewHub(1, 1)
	b := hub.Transport(0)
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := b.Recv(ctx); err != ErrClosed {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestBroadcastDeliversToEveryRank(t *testing.T) {
	hub := NewHub(4, 4)
	defer hub.Close()
	src := hub.Transport(0)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := src.Broadcast(ctx, []int{1, 2, 3}, ControlMsg{Type: Stop}); err != nil {
		t.Fatal(err)
	}
	for _, rank := range []int{1, 2, 3} {
		env, err := hub.Transport(rank).Recv(ctx)
		if err != nil {
			t.Fatalf("rank %d: %v", rank, err)
		}
		msg, ok := env.Payload.(ControlMsg)
		if !ok || msg.Type != Stop {
			t.Errorf("rank %d: expected a Stop ControlMsg, got %v", rank, env.Payload)
		}
	}
}

func TestOwnerPartitionsAcrossReceivers(t *testing.T) {
	seen := map[int]bool{}
	for e := uint64(0); e < 100; e++ {
		seen[Owner(e, 4)] = true
	}
	if len(seen) != 4 {
		t.Errorf("expected all 4 receivers to be addressed, got %d distinct owners", len(seen))
	}
	if got := Owner(7, 0); got != 0 {
		t.Errorf("expected Owner to fall back to 0 receivers gracefully, got %d", got)
	}
}
