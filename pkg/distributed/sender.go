package distributed

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kargakis/vowmitm/pkg/engine"
	"github.com/kargakis/vowmitm/pkg/problem"
	"github.com/kargakis/vowmitm/pkg/rng"
	"github.com/kargakis/vowmitm/pkg/walk"
)

// Sender generates chains under the current version and reports each
// one's distinguished endpoint to the receiver rank that owns it. It
// batches triples per destination in a send buffer, flushing once the
// buffer reaches bufferCapacity or an epoch boundary forces a flush,
// and calls home to the controller with its local DP count on a
// DP-count-and-wall-clock cadence.
type Sender struct {
	t              *Transport
	controllerRank int
	receiverRanks  []int
	w              problem.Wrapper
	pred           walk.Predicate
	maxChainLen    uint64
	seedBase       uint64
	stateMask      uint64
	rank           int
	numSenders     int
	bufferCapacity uint64
	pingInterval   uint64
	pingDelay      time.Duration
}

// NewSender builds a Sender that walks chains under a seed derived
// from seedBase and rank (one of numSenders total senders), and
// reports to the receivers in receiverRanks.
func NewSender(t *Transport, controllerRank int, receiverRanks []int, w problem.Wrapper, pred walk.Predicate, maxChainLen uint64, seedBase uint64, stateMask uint64, rank, numSenders int, bufferCapacity, pingInterval uint64, pingDelay time.Duration) *Sender {
	return &Sender{
		t:              t,
		controllerRank: controllerRank,
		receiverRanks:  receiverRanks,
		w:              w,
		pred:           pred,
		maxChainLen:    maxChainLen,
		seedBase:       seedBase,
		stateMask:      stateMask,
		rank:           rank,
		numSenders:     numSenders,
		bufferCapacity: bufferCapacity,
		pingInterval:   pingInterval,
		pingDelay:      pingDelay,
	}
}

// splitterFor derives this rank's seed stream from a seed_base: every
// rank mixes in its own index so ranks sharing a common seed_base
// still draw disjoint sequences.
func (s *Sender) splitterFor(seedBase uint64) *rng.Splitter {
	return rng.NewSplitter(seedBase ^ uint64(s.rank+1)*0x2545F4914F6CDD1D)
}

// Run walks chains and reports their endpoints until a ControlMsg{Stop}
// arrives from the controller or ctx is cancelled.
func (s *Sender) Run(ctx context.Context) error {
	var version atomic.Uint64
	var seedBase atomic.Uint64
	var stopped atomic.Bool
	var epochBumped atomic.Bool
	seedBase.Store(s.seedBase)

	listenerCtx, cancelListener := context.WithCancel(ctx)
	defer cancelListener()

	listenerDone := make(chan error, 1)
	go func() {
		for {
			env, err := s.t.Recv(listenerCtx)
			if err != nil {
				listenerDone <- err
				return
			}
			msg, ok := env.Payload.(ControlMsg)
			if !ok {
				continue
			}
			switch msg.Type {
			case NewEpoch:
				version.Store(msg.Version)
				seedBase.Store(msg.SeedBase)
				epochBumped.Store(true)
			case Stop:
				stopped.Store(true)
				listenerDone <- nil
				return
			}
		}
	}()

	buffers := make(map[int][]Triple, len(s.receiverRanks))
	flush := func(target int) error {
		batch := buffers[target]
		if len(batch) == 0 {
			return nil
		}
		buffers[target] = nil
		return s.t.Send(ctx, target, TripleBatch{Triples: batch})
	}
	flushAll := func() error {
		for _, target := range s.receiverRanks {
			if err := flush(target); err != nil {
				return err
			}
		}
		return nil
	}

	seeder := s.splitterFor(seedBase.Load())
	var dpCount uint64
	lastPing := time.Now()

	for !stopped.Load() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if epochBumped.CompareAndSwap(true, false) {
			if err := flushAll(); err != nil {
				return err
			}
			seeder = s.splitterFor(seedBase.Load())
			dpCount = 0
		}

		seed := seeder.Next() & s.stateMask
		v := version.Load()
		res := walk.ToDistinguishedPoint(s.w, v, seed, s.pred, s.maxChainLen)
		if res.Outcome == walk.TooLong {
			continue
		}

		dpCount++
		target := s.receiverRanks[Owner(res.Endpoint, len(s.receiverRanks))]
		buffers[target] = append(buffers[target], Triple{Version: v, Seed: seed, Endpoint: res.Endpoint, Length: res.Length})
		if uint64(len(buffers[target])) >= s.bufferCapacity {
			if err := flush(target); err != nil {
				return err
			}
		}

		if dpCount%s.pingInterval == 0 && time.Since(lastPing) >= s.pingDelay {
			lastPing = time.Now()
			if err := s.t.Send(ctx, s.controllerRank, CallHome{Rank: s.t.Rank(), Stats: engine.Stats{Chains: dpCount}}); err != nil {
				return err
			}
		}
	}

	if err := flushAll(); err != nil {
		return err
	}
	return nil
}
