// Package distributed reinterprets the multi-process, message-passing
// vOW architecture as one goroutine per logical rank, talking over
// channels instead of sockets: chain endpoints cross a Go channel as
// typed values instead of a TCP connection as fixed-width records, and
// golang.org/x/sync/errgroup replaces manual goroutine bookkeeping
// with first-error-wins shutdown.
package distributed

import "github.com/kargakis/vowmitm/pkg/engine"

// Role identifies what a rank does in the search.
type Role int

const (
	RoleController Role = iota
	RoleReceiver
	RoleSender
)

// Triple is a sender's report of one chain's distinguished endpoint,
// the wire message that crosses from a sender rank to the receiver
// rank that owns that endpoint's dictionary shard.
type Triple struct {
	Version  uint64
	Seed     uint64
	Endpoint uint64
	Length   uint64
}

// TripleBatch is a sender's buffered report of several Triples bound
// for the same receiver, sent once the buffer fills or an epoch ends
// rather than one message per chain.
type TripleBatch struct {
	Triples []Triple
}

// ControlMsgType enumerates the messages the controller broadcasts.
type ControlMsgType int

const (
	// NewEpoch tells every rank to advance to Version and, for
	// receivers, to clear their dictionary shard.
	NewEpoch ControlMsgType = iota
	// Stop tells every rank the search is over, win or lose.
	Stop
)

// ControlMsg is broadcast from the controller rank to every sender
// and receiver rank. SeedBase is the j_base every sender derives its
// own disjoint seed stride from for the epoch named by Version.
type ControlMsg struct {
	Type     ControlMsgType
	Version  uint64
	SeedBase uint64
}

// CallHome is a sender or receiver's periodic status report to the
// controller: routine stats, or a signal that a receiver's shard has
// filled and an epoch rollover is needed.
type CallHome struct {
	Rank  int
	Stats engine.Stats
	Full  bool
}

// Golden is a receiver's report of a confirmed result, sent to the
// controller so it can stop the run.
type Golden struct {
	Rank   int
	Result engine.Result
}

// Assignment statically maps a rank index to its role, so every
// goroutine can be launched from the same loop and just ask "what am
// I" instead of threading role-specific parameters through the
// spawner.
type Assignment struct {
	Rank int
	Role Role
}

// Owner returns which receiver rank (0-indexed among receivers, not a
// global rank) is responsible for a chain endpoint's dictionary
// shard, partitioning the endpoint space by a cheap modulus the same
// way a sharded map spreads keys across buckets.
func Owner(endpoint uint64, numReceivers int) int {
	if numReceivers <= 0 {
		return 0
	}
	return int(endpoint % uint64(numReceivers))
}
