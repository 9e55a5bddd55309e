package txn

import "context"

// Completion signals the end of an asynchronous segment write. SegmentWriter
// implementations populate it; the committer blocks on Wait.
type Completion struct {
	done chan error
}

// NewCompletion returns a Completion ready to be passed to SegmentWriter.Submit.
func NewCompletion() *Completion {
	return &Completion{done: make(chan error, 1)}
}

// Signal is called by the SegmentWriter once the write lands or fails.
func (c *Completion) Signal(err error) {
	c.done <- err
}

// Wait blocks until Signal is called or ctx is cancelled.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ItemStore is the dirty-item cache the committer drains on each commit.
type ItemStore interface {
	// HasDirty reports whether any item is currently dirty.
	HasDirty(ctx context.Context) bool
	// FitsSingle reports whether a reservation of this shape can be
	// satisfied by a single segment.
	FitsSingle(ctx context.Context, items, vals int64) bool
	// DrainInto serializes every dirty item into seg and clears their
	// dirty bit.
	DrainInto(ctx context.Context, seg Segment) error
}

// InodeWriteback mirrors the filesystem's writeback of dirty inode
// metadata around a commit. sync true marks the start-of-commit pass,
// sync false the post-drain pass.
type InodeWriteback interface {
	Start(ctx context.Context, sync bool) error
}

// Segment is an immutable handle to one level-0 write unit.
type Segment interface {
	TotalBytes() uint64
}

// SegmentWriter allocates and submits segments to durable storage.
type SegmentWriter interface {
	New(ctx context.Context, segno uint64) (Segment, error)
	Submit(ctx context.Context, seg Segment, completion *Completion) error
	Wait(ctx context.Context, completion *Completion) error
}

// ControlClient is the control-plane RPC surface: segment number
// allocation, manifest recording, and sequence advancement.
type ControlClient interface {
	AllocSegno(ctx context.Context) (uint64, error)
	RecordSegment(ctx context.Context, seg Segment, level uint8) error
	AdvanceSeq(ctx context.Context, currentSeq *uint64) error
}

// Counters is the named-counter collaborator contract, backed in
// production by pkg/metrics.
type Counters interface {
	Inc(name string)
	Add(name string, value uint64)
}
