// Package controlplane provides ControlClient implementations: an
// in-memory one for tests, and Redis- and Postgres-backed ones for real
// deployments, all three wrapped in retry and circuit-breaker protection.
package controlplane

import (
	"context"
	"sync"

	"github.com/wovenfs/txncore/internal/txn"
)

// MemoryClient is a process-local ControlClient, grounded on the
// teacher's map-plus-mutex token store shape. It is the default backend
// for unit tests and for a single-process deployment with no external
// control plane.
type MemoryClient struct {
	mu        sync.Mutex
	nextSegno uint64
	manifest  map[uint64]manifestEntry
	seq       uint64
}

type manifestEntry struct {
	level uint8
	bytes uint64
}

// NewMemoryClient returns an empty MemoryClient.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{manifest: make(map[uint64]manifestEntry)}
}

// AllocSegno implements txn.ControlClient.
func (c *MemoryClient) AllocSegno(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSegno++
	return c.nextSegno, nil
}

// RecordSegment implements txn.ControlClient.
func (c *MemoryClient) RecordSegment(ctx context.Context, seg txn.Segment, level uint8) error {
	segno, ok := seg.(interface{ Segno() uint64 })
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manifest[segno.Segno()] = manifestEntry{level: level, bytes: seg.TotalBytes()}
	return nil
}

// AdvanceSeq implements txn.ControlClient.
func (c *MemoryClient) AdvanceSeq(ctx context.Context, currentSeq *uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	*currentSeq = c.seq
	return nil
}

// ManifestLen reports the number of recorded segments, for tests.
func (c *MemoryClient) ManifestLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.manifest)
}
