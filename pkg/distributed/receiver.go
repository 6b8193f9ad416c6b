package distributed

import (
	"context"

	"github.com/kargakis/vowmitm/pkg/dict"
	"github.com/kargakis/vowmitm/pkg/engine"
	"github.com/kargakis/vowmitm/pkg/problem"
	"github.com/kargakis/vowmitm/pkg/resolve"
)

// Receiver owns one shard of the dictionary: every Triple whose
// endpoint hashes to this rank (see Owner) lands here, gets inserted
// or probed, and any collision is walked back and checked against
// the problem's predicate right where it was detected.
type Receiver struct {
	t              *Transport
	controllerRank int
	w              problem.Wrapper
	d              *dict.Dict
	version        uint64
	pingInterval   uint64
}

// NewReceiver builds a Receiver with its own dictionary shard of the
// given capacity, reporting its running DP count to the controller
// every pingInterval insertions.
func NewReceiver(t *Transport, controllerRank int, w problem.Wrapper, capacity uint64, pingInterval uint64) *Receiver {
	return &Receiver{
		t:              t,
		controllerRank: controllerRank,
		w:              w,
		d:              dict.New(capacity),
		pingInterval:   pingInterval,
	}
}

// Run processes Triple, TripleBatch, and ControlMsg messages until
// the controller sends Stop, the context is cancelled, or a golden
// pair is found and reported upstream.
func (r *Receiver) Run(ctx context.Context) error {
	var stats engine.Stats

	for {
		env, err := r.t.Recv(ctx)
		if err != nil {
			if err == ErrClosed {
				return nil
			}
			return err
		}

		switch msg := env.Payload.(type) {
		case Triple:
			if err := r.processTriple(ctx, msg, &stats); err != nil {
				return err
			}

		case TripleBatch:
			for _, t := range msg.Triples {
				if err := r.processTriple(ctx, t, &stats); err != nil {
					return err
				}
			}

		case ControlMsg:
			switch msg.Type {
			case NewEpoch:
				r.d.Clear()
				r.version = msg.Version
				stats.Versions = msg.Version
			case Stop:
				return nil
			}
		}
	}
}

// processTriple inserts or probes a single chain endpoint and reports
// upstream on a dictionary-full signal, a periodic DP-count ping, or
// a confirmed golden pair.
func (r *Receiver) processTriple(ctx context.Context, msg Triple, stats *engine.Stats) error {
	if msg.Version != r.version {
		return nil // stale report from before the last epoch bump
	}
	stats.Chains++

	if r.pingInterval > 0 && stats.Chains%r.pingInterval == 0 {
		if err := r.t.Send(ctx, r.controllerRank, CallHome{Rank: r.t.Rank(), Stats: *stats}); err != nil {
			return err
		}
	}

	outcome, existing := r.d.InsertOrProbe(msg.Endpoint, msg.Seed, msg.Length)
	switch outcome {
	case dict.Inserted:
		// nothing further to do until this slot collides

	case dict.Full:
		if err := r.t.Send(ctx, r.controllerRank, CallHome{Rank: r.t.Rank(), Stats: *stats, Full: true}); err != nil {
			return err
		}

	case dict.Candidate:
		stats.Collisions++
		result := resolve.WalkBack(r.w, r.version, existing.Seed, existing.Length, msg.Seed, msg.Length)

		if resolve.ShouldEvict(existing.Length, msg.Length) {
			r.d.Overwrite(msg.Endpoint, msg.Seed, msg.Length)
			stats.RobinHoodEvictions++
		}

		if result.Verdict != resolve.Collided {
			return nil
		}
		x0, x1, reason := r.w.MixGoodPair(r.version, result.A, result.B)
		switch reason {
		case problem.Accepted:
			stats.Evaluations = r.w.NEval()
			if err := r.t.Send(ctx, r.controllerRank, Golden{
				Rank:   r.t.Rank(),
				Result: engine.Result{X0: x0, X1: x1, Stats: *stats},
			}); err != nil {
				return err
			}
		case problem.SameBranch:
			stats.SameBranchRejections++
		case problem.PredicateFailed:
			stats.PredicateRejections++
		}
	}
	return nil
}
