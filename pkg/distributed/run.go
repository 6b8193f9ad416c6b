package distributed

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kargakis/vowmitm/pkg/engine"
	"github.com/kargakis/vowmitm/pkg/problem"
	"github.com/kargakis/vowmitm/pkg/walk"
)

// DefaultBufferCapacity is the number of triples a sender batches per
// destination receiver before flushing, the buffer_capacity run
// parameter.
const DefaultBufferCapacity = 256

// DefaultPingInterval is the DP-count modulus a sender checks against
// before considering a CALLHOME ping.
const DefaultPingInterval = 10000

// DefaultPingDelay is the wall-clock floor between CALLHOME pings, so
// a sender producing DPs slower than PingInterval still reports in
// periodically.
const DefaultPingDelay = 250 * time.Millisecond

// Topology is the static rank layout of a distributed run: rank 0 is
// always the controller, followed by the receiver ranks, followed by
// the sender ranks.
type Topology struct {
	NumReceivers int
	NumSenders   int

	// BufferCapacity caps how many triples a sender batches per
	// destination receiver before flushing. Zero selects
	// DefaultBufferCapacity.
	BufferCapacity uint64
	// PingInterval is the DP-count modulus a sender checks before
	// considering a CALLHOME ping. Zero selects DefaultPingInterval.
	PingInterval uint64
	// PingDelay is the wall-clock floor between CALLHOME pings. Zero
	// selects DefaultPingDelay.
	PingDelay time.Duration
}

func (t Topology) totalRanks() int { return 1 + t.NumReceivers + t.NumSenders }

func (t Topology) controllerRank() int { return 0 }

func (t Topology) receiverRanks() []int {
	ranks := make([]int, t.NumReceivers)
	for i := range ranks {
		ranks[i] = 1 + i
	}
	return ranks
}

func (t Topology) senderRanks() []int {
	ranks := make([]int, t.NumSenders)
	base := 1 + t.NumReceivers
	for i := range ranks {
		ranks[i] = base + i
	}
	return ranks
}

func (t Topology) allWorkerRanks() []int {
	return append(t.receiverRanks(), t.senderRanks()...)
}

// Run launches one goroutine per rank in topology and drives the
// search to completion, returning the first confirmed golden pair.
// Using an errgroup means the first goroutine to return an error
// cancels ctx for every other one.
func Run(ctx context.Context, p *problem.Problem, topology Topology, params engine.Parameters) (*engine.Result, error) {
	if topology.NumReceivers < 1 {
		return nil, fmt.Errorf("distributed: need at least one receiver, got %d", topology.NumReceivers)
	}
	if topology.NumSenders < 1 {
		return nil, fmt.Errorf("distributed: need at least one sender, got %d", topology.NumSenders)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	theta := params.Theta
	if theta == 0 {
		theta = engine.AutoTheta(p)
	}
	pred := walk.TrailingZeros(theta)

	abandonFactor := params.AbandonFactor
	if abandonFactor == 0 {
		abandonFactor = engine.DefaultAbandonFactor
	}
	maxChainLen := params.MaxChainLen
	if maxChainLen == 0 {
		maxChainLen = engine.DefaultMaxChainLen(theta, abandonFactor)
	}

	capacity := params.DictCapacity
	if capacity == 0 {
		var err error
		capacity, err = engine.DefaultCapacity(topology.NumReceivers)
		if err != nil {
			return nil, err
		}
	}

	attemptBudgetFactor := params.AttemptBudgetFactor
	if attemptBudgetFactor == 0 {
		attemptBudgetFactor = engine.DefaultAttemptBudgetFactor
	}
	totalCapacity := capacity * uint64(topology.NumReceivers)

	bufferCapacity := topology.BufferCapacity
	if bufferCapacity == 0 {
		bufferCapacity = DefaultBufferCapacity
	}
	pingInterval := topology.PingInterval
	if pingInterval == 0 {
		pingInterval = DefaultPingInterval
	}
	pingDelay := topology.PingDelay
	if pingDelay == 0 {
		pingDelay = DefaultPingDelay
	}

	hub := NewHub(topology.totalRanks(), 4096)
	defer hub.Close()

	g, gctx := errgroup.WithContext(ctx)

	controllerRank := topology.controllerRank()
	receiverRanks := topology.receiverRanks()
	senderRanks := topology.senderRanks()
	allWorkers := topology.allWorkerRanks()

	var result *engine.Result

	g.Go(func() error {
		ctrl := NewController(hub.Transport(controllerRank), allWorkers, topology.NumReceivers, attemptBudgetFactor*totalCapacity, params.MaxVersions)
		res, err := ctrl.Run(gctx)
		if err != nil {
			return err
		}
		result = res
		return nil
	})

	for _, rank := range receiverRanks {
		rank := rank
		g.Go(func() error {
			w, err := problem.NewWrapper(p)
			if err != nil {
				return err
			}
			r := NewReceiver(hub.Transport(rank), controllerRank, w, capacity, pingInterval)
			return r.Run(gctx)
		})
	}

	for idx, rank := range senderRanks {
		rank, idx := rank, idx
		seed := params.Seed + uint64(idx+1)*0x2545F4914F6CDD1D
		g.Go(func() error {
			w, err := problem.NewWrapper(p)
			if err != nil {
				return err
			}
			s := NewSender(hub.Transport(rank), controllerRank, receiverRanks, w, pred, maxChainLen, seed, p.RangeMask(), idx, topology.NumSenders, bufferCapacity, pingInterval, pingDelay)
			return s.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, engine.ErrExhausted
	}
	return result, nil
}
