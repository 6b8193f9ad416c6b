package distributed

import (
	"context"
	"fmt"
)

// Envelope wraps a message with the rank that sent it.
type Envelope struct {
	From    int
	Payload any
}

// Hub is the in-process switchboard every rank's Transport talks
// through: one buffered inbox channel per rank, addressed by rank
// index, standing in for an MPI communicator.
type Hub struct {
	inboxes []chan Envelope
}

// NewHub allocates a Hub with one inbox per rank in [0, numRanks).
func NewHub(numRanks int, inboxSize int) *Hub {
	h := &Hub{inboxes: make([]chan Envelope, numRanks)}
	for i := range h.inboxes {
		h.inboxes[i] = make(chan Envelope, inboxSize)
	}
	return h
}

// Transport returns the Transport view of the hub for rank.
func (h *Hub) Transport(rank int) *Transport {
	return &Transport{hub: h, rank: rank}
}

// Close closes every inbox, causing blocked Recv calls across the
// hub to observe a closed channel and return ErrClosed.
func (h *Hub) Close() {
	for _, ch := range h.inboxes {
		close(ch)
	}
}

// ErrClosed is returned by Recv once the hub has been closed and the
// rank's inbox is drained.
var ErrClosed = fmt.Errorf("distributed: transport closed")

// Transport is one rank's view of a Hub: it can send to any other
// rank's inbox and receive from its own.
type Transport struct {
	hub  *Hub
	rank int
}

// Rank returns the transport's own rank.
func (t *Transport) Rank() int { return t.rank }

// Send delivers payload to rank to's inbox, blocking if that inbox's
// buffer is full. It respects ctx cancellation while waiting.
func (t *Transport) Send(ctx context.Context, to int, payload any) error {
	if to < 0 || to >= len(t.hub.inboxes) {
		return fmt.Errorf("distributed: send to out-of-range rank %d", to)
	}
	select {
	case t.hub.inboxes[to] <- Envelope{From: t.rank, Payload: payload}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Broadcast sends payload to every rank in to.
func (t *Transport) Broadcast(ctx context.Context, to []int, payload any) error {
	for _, r := range to {
		if err := t.Send(ctx, r, payload); err != nil {
			return err
		}
	}
	return nil
}

// Recv blocks until a message arrives in this rank's inbox, ctx is
// cancelled, or the hub is closed.
func (t *Transport) Recv(ctx context.Context) (Envelope, error) {
	select {
	case e, ok := <-t.hub.inboxes[t.rank]:
		if !ok {
			return Envelope{}, ErrClosed
		}
		return e, nil
	case <-ctx.Done():
		return Envelope{}, ctx.Err()
	}
}
