package txn

import (
	"context"

	"github.com/wovenfs/txncore/pkg/errors"
)

// SyncGate exposes Sync and Fsync on top of a Committer, giving callers a
// way to wait for their writes to be included in a completed commit.
type SyncGate struct {
	committer *Committer
}

// NewSyncGate wraps committer.
func NewSyncGate(committer *Committer) *SyncGate {
	return &SyncGate{committer: committer}
}

// Sync cancels the pending deadline timer (the commit rearms it when it
// finishes), kicks a commit and, if wait is true, blocks until a commit
// whose write_count exceeds the value observed at entry has completed,
// then returns that commit's result.
func (g *SyncGate) Sync(ctx context.Context, wait bool) error {
	g.committer.resultMu.Lock()
	expected := g.committer.writeCount
	g.committer.resultMu.Unlock()

	g.committer.timerMu.Lock()
	if g.committer.timer != nil {
		g.committer.timer.Stop()
	}
	g.committer.timerMu.Unlock()

	g.committer.kick(false)

	if !wait {
		return nil
	}

	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			g.committer.resultMu.Lock()
			g.committer.syncCond.Broadcast()
			g.committer.resultMu.Unlock()
		case <-watchDone:
		}
	}()

	g.committer.resultMu.Lock()
	defer g.committer.resultMu.Unlock()
	for g.committer.writeCount <= expected {
		if ctx.Err() != nil {
			return errors.New(errors.ErrInterrupted, "sync wait interrupted").
				WithSource(errors.SourceCommitPipeline).
				WithContext(ctx)
		}
		g.committer.syncCond.Wait()
	}
	return g.committer.lastResult
}

// Fsync increments the fsync counter and delegates to Sync(wait=true).
// file is not used: this core has no file-level granularity, so every
// fsync forces a full commit.
func (g *SyncGate) Fsync(ctx context.Context, file string) error {
	g.committer.counters.Inc("trans_commit_fsync")
	return g.Sync(ctx, true)
}
