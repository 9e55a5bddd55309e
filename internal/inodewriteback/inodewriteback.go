// Package inodewriteback is a stub InodeWriteback collaborator. Its
// SimulateReentrant mode exercises the committer's reentrance discipline:
// the stub itself calls Hold/Release through the same entry points a real
// writeback path would, recognized as no-ops because they run under the
// committer's own actor identity.
package inodewriteback

import (
	"context"

	"github.com/wovenfs/txncore/internal/txn"
)

// Holder is the subset of internal/txn.Core's surface the stub needs to
// simulate a reentrant writeback call.
type Holder interface {
	Hold(ctx context.Context, actor txn.ActorID, count txn.ItemCount) error
	Release(actor txn.ActorID)
}

// Stub is a no-op InodeWriteback with optional reentrance simulation.
type Stub struct {
	SimulateReentrant bool
	ReentrantCount    txn.ItemCount

	holder Holder

	StartCalls []bool // records the sync argument of each Start call, in order
}

// New returns a Stub. holder may be nil unless SimulateReentrant is set.
func New(holder Holder) *Stub {
	return &Stub{holder: holder}
}

// Start implements internal/txn.InodeWriteback. When SimulateReentrant is
// set, it reuses the committer's own actor identity from ctx (so the
// manager recognizes the call as a no-op) rather than a fabricated one.
func (s *Stub) Start(ctx context.Context, sync bool) error {
	s.StartCalls = append(s.StartCalls, sync)

	if s.SimulateReentrant && s.holder != nil {
		actor, _ := txn.ActorFromContext(ctx)
		if err := s.holder.Hold(ctx, actor, s.ReentrantCount); err != nil {
			return err
		}
		s.holder.Release(actor)
	}
	return nil
}
