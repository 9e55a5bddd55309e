// Package itemstore is an in-memory dirty-item table implementing
// internal/txn.ItemStore, grounded on the teacher's map-plus-mutex token
// store.
package itemstore

import (
	"context"
	"sort"
	"sync"

	"github.com/wovenfs/txncore/internal/txn"
	"github.com/wovenfs/txncore/pkg/errors"
)

// WritableSegment is the richer contract itemstore needs from a Segment to
// actually drain data into it; txn.Segment itself only exposes TotalBytes,
// so DrainInto type-asserts to this before writing.
type WritableSegment interface {
	txn.Segment
	AppendItem(key string, val []byte)
}

// Store is a process-local dirty-item cache. It is not durable; the
// committer is expected to drain it into a Segment before any data it
// holds is considered written.
type Store struct {
	mu sync.RWMutex

	dirty map[string][]byte

	// lastDrained holds the most recently drained batch until the
	// committer either confirms success (by starting a fresh drain) or
	// calls Restore after a downstream step failed to make it durable.
	lastDrained    map[string][]byte
	lastDrainedSeg txn.Segment

	byteBudget int64
}

// New returns a Store bounding a single reservation to byteBudget bytes of
// total value data. A reservation larger than the budget can never be
// admitted, which is the intended behavior for a misconfigured caller.
func New(byteBudget int64) *Store {
	return &Store{
		dirty:      make(map[string][]byte),
		byteBudget: byteBudget,
	}
}

// Put marks key dirty with val, overwriting any prior pending value.
func (s *Store) Put(key string, val []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[key] = val
}

// HasDirty implements txn.ItemStore.
func (s *Store) HasDirty(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dirty) > 0
}

// FitsSingle implements txn.ItemStore. It reports whether a reservation of
// this shape could still be drained into one segment, judged purely on
// total value bytes against the configured budget. items is accepted for
// interface symmetry with the distilled capacity predicate; this
// implementation has no per-item cap of its own.
func (s *Store) FitsSingle(ctx context.Context, items, vals int64) bool {
	_ = items
	return vals <= s.byteBudget
}

// DrainInto implements txn.ItemStore: it serializes every dirty item into
// seg in key order and clears the dirty set. Order is deterministic so
// that two commits over the same input produce byte-identical segments.
func (s *Store) DrainInto(ctx context.Context, seg txn.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.dirty))
	for k := range s.dirty {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	writable, ok := seg.(WritableSegment)
	if !ok {
		return errors.New(errors.ErrIO, "segment does not accept drained items").
			WithSource(errors.SourceItemStore)
	}

	batch := make(map[string][]byte, len(keys))
	for _, k := range keys {
		val := s.dirty[k]
		writable.AppendItem(k, val)
		batch[k] = val
		delete(s.dirty, k)
	}
	s.lastDrained = batch
	s.lastDrainedSeg = seg
	return nil
}

// Restore re-marks the most recently drained batch dirty again. The
// committer calls this when a step after DrainInto (submit, writeback,
// record_segment, advance_seq) fails, so the batch is redrained by the
// next commit attempt instead of being silently lost. It is a no-op if
// seg is not the segment that batch was drained into, or if nothing has
// been drained since the last Restore or successful drain.
func (s *Store) Restore(seg txn.Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastDrained == nil || seg != s.lastDrainedSeg {
		return
	}
	for k, v := range s.lastDrained {
		s.dirty[k] = v
	}
	s.lastDrained = nil
	s.lastDrainedSeg = nil
}

// Len reports the number of currently dirty items, for tests and metrics.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dirty)
}
