package distributed

import (
	"context"

	"github.com/kargakis/vowmitm/pkg/engine"
	"github.com/kargakis/vowmitm/pkg/rng"
)

// Controller owns the only piece of global state in the distributed
// run: the current version/epoch number and its seed_base. It bumps
// the epoch either when every receiver reports its shard full, or
// when the aggregate DP count reported by CALLHOME across all ranks
// reaches attemptBudget, the distributed form of the sequential
// engine's 10*S-attempts-per-version heuristic.
type Controller struct {
	t             *Transport
	allRanks      []int
	numReceivers  int
	attemptBudget uint64
	maxVersions   uint64
	seeder        *rng.Splitter
}

// NewController builds a Controller that broadcasts to allRanks
// (every sender and receiver rank), advances the epoch once the
// aggregate reported DP count reaches attemptBudget, and gives up
// after maxVersions epochs (0 means unbounded).
func NewController(t *Transport, allRanks []int, numReceivers int, attemptBudget uint64, maxVersions uint64) *Controller {
	return &Controller{
		t:             t,
		allRanks:      allRanks,
		numReceivers:  numReceivers,
		attemptBudget: attemptBudget,
		maxVersions:   maxVersions,
		seeder:        rng.NewSplitter(1),
	}
}

// Run blocks until a receiver reports a golden pair or the version
// budget is exhausted, then broadcasts Stop to every other rank
// before returning.
func (c *Controller) Run(ctx context.Context) (*engine.Result, error) {
	version := uint64(0)
	full := make(map[int]bool)
	dpCount := make(map[int]uint64)

	if err := c.t.Broadcast(ctx, c.allRanks, ControlMsg{Type: NewEpoch, Version: version, SeedBase: c.seeder.Next()}); err != nil {
		return nil, err
	}

	aggregate := func() uint64 {
		var sum uint64
		for _, n := range dpCount {
			sum += n
		}
		return sum
	}

	advance := func() (bool, error) {
		version++
		full = make(map[int]bool)
		dpCount = make(map[int]uint64)
		if c.maxVersions > 0 && version >= c.maxVersions {
			c.t.Broadcast(ctx, c.allRanks, ControlMsg{Type: Stop})
			return true, engine.ErrExhausted
		}
		err := c.t.Broadcast(ctx, c.allRanks, ControlMsg{Type: NewEpoch, Version: version, SeedBase: c.seeder.Next()})
		return err != nil, err
	}

	for {
		env, err := c.t.Recv(ctx)
		if err != nil {
			return nil, err
		}

		switch msg := env.Payload.(type) {
		case CallHome:
			dpCount[msg.Rank] = msg.Stats.Chains
			if msg.Full {
				full[msg.Rank] = true
			}
			if len(full) < c.numReceivers && aggregate() < c.attemptBudget {
				continue
			}
			if done, err := advance(); done {
				return nil, err
			}

		case Golden:
			c.t.Broadcast(ctx, c.allRanks, ControlMsg{Type: Stop})
			return &msg.Result, nil
		}
	}
}
