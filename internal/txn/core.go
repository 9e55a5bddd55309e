package txn

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wovenfs/txncore/internal/tracing"
)

// Core bundles the Manager, Committer, and SyncGate into the single
// package-level surface the rest of the filesystem calls into.
type Core struct {
	mgr       *Manager
	committer *Committer
	gate      *SyncGate
}

// Config bundles every collaborator and tunable Setup needs.
type Config struct {
	ItemStore      ItemStore
	InodeWriteback InodeWriteback
	SegmentWriter  SegmentWriter
	ControlClient  ControlClient
	Counters       Counters
	Tracer         *tracing.TracerProvider
	Logger         *logrus.Logger
	SyncDelay      time.Duration
}

// Setup wires a Core from its collaborators and starts the deadline timer.
// SyncDelay defaults to 10 seconds (TRANS_SYNC_DELAY) when zero.
func Setup(cfg Config) *Core {
	if cfg.SyncDelay <= 0 {
		cfg.SyncDelay = 10 * time.Second
	}

	mgr := NewManager(cfg.ItemStore, cfg.Counters)
	if cfg.Logger != nil {
		mgr.SetLogger(cfg.Logger.WithField("component", "manager"))
	}

	committer := NewCommitter(mgr, CommitterConfig{
		ItemStore:      cfg.ItemStore,
		InodeWriteback: cfg.InodeWriteback,
		SegmentWriter:  cfg.SegmentWriter,
		ControlClient:  cfg.ControlClient,
		Counters:       cfg.Counters,
		Tracer:         cfg.Tracer,
		Logger:         cfg.Logger,
		SyncDelay:      cfg.SyncDelay,
	})

	return &Core{
		mgr:       mgr,
		committer: committer,
		gate:      NewSyncGate(committer),
	}
}

// Hold admits actor as a transaction holder reserving count capacity.
func (c *Core) Hold(ctx context.Context, actor ActorID, count ItemCount) error {
	return c.mgr.Hold(ctx, actor, count)
}

// Release drops one nested hold for actor.
func (c *Core) Release(actor ActorID) {
	c.mgr.Release(actor)
}

// Track records actor's realized contribution toward its reservation.
func (c *Core) Track(actor ActorID, items, vals int64) {
	c.mgr.Track(actor, items, vals)
}

// CurrentlyHeld reports whether actor owns a live reservation.
func (c *Core) CurrentlyHeld(actor ActorID) bool {
	return c.mgr.CurrentlyHeld(actor)
}

// Sync kicks a commit, optionally waiting for it (or a later one) to finish.
func (c *Core) Sync(ctx context.Context, wait bool) error {
	return c.gate.Sync(ctx, wait)
}

// Fsync forces a waited commit, counted separately from a plain sync.
func (c *Core) Fsync(ctx context.Context, file string) error {
	return c.gate.Fsync(ctx, file)
}

// Shutdown cancels the deadline timer and waits for any in-flight commit to
// finish, then returns. It never returns an error: any dirty data not
// flushed by a prior Sync remains unreachable, which is the caller's
// responsibility to have avoided.
func (c *Core) Shutdown(ctx context.Context) {
	c.committer.stopTimer()
	c.committer.wait()
}
