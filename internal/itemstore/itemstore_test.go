package itemstore

import (
	"context"
	"testing"

	"github.com/wovenfs/txncore/internal/txn"
)

type writableSeg struct {
	items map[string][]byte
}

func newWritableSeg() *writableSeg { return &writableSeg{items: make(map[string][]byte)} }

func (s *writableSeg) AppendItem(key string, val []byte) { s.items[key] = val }

func (s *writableSeg) TotalBytes() uint64 {
	var n uint64
	for k, v := range s.items {
		n += uint64(len(k) + len(v))
	}
	return n
}

// opaqueSeg satisfies txn.Segment but not WritableSegment.
type opaqueSeg struct{}

func (opaqueSeg) TotalBytes() uint64 { return 0 }

func TestDrainIntoClearsDirtySet(t *testing.T) {
	s := New(1 << 20)
	s.Put("b", []byte("2"))
	s.Put("a", []byte("1"))

	ctx := context.Background()
	if !s.HasDirty(ctx) {
		t.Fatal("expected dirty set to be non-empty after Put")
	}

	seg := newWritableSeg()
	if err := s.DrainInto(ctx, seg); err != nil {
		t.Fatalf("DrainInto: %v", err)
	}

	if s.HasDirty(ctx) {
		t.Fatal("expected dirty set to be empty after a successful drain")
	}
	if len(seg.items) != 2 {
		t.Fatalf("expected both items drained, got %d", len(seg.items))
	}
}

func TestDrainIntoRejectsOpaqueSegment(t *testing.T) {
	s := New(1 << 20)
	s.Put("a", []byte("1"))

	if err := s.DrainInto(context.Background(), opaqueSeg{}); err == nil {
		t.Fatal("expected DrainInto to reject a segment that cannot accept items")
	}
}

func TestRestoreReinstatesLastDrainedBatch(t *testing.T) {
	s := New(1 << 20)
	s.Put("a", []byte("1"))

	ctx := context.Background()
	seg := newWritableSeg()
	if err := s.DrainInto(ctx, seg); err != nil {
		t.Fatalf("DrainInto: %v", err)
	}
	if s.HasDirty(ctx) {
		t.Fatal("expected drained store to report no dirty items")
	}

	var asSegment txn.Segment = seg
	s.Restore(asSegment)

	if !s.HasDirty(ctx) {
		t.Fatal("expected Restore to re-mark the drained batch dirty")
	}
	if s.Len() != 1 {
		t.Fatalf("expected exactly the restored item back, got %d", s.Len())
	}
}

func TestRestoreIgnoresMismatchedSegment(t *testing.T) {
	s := New(1 << 20)
	s.Put("a", []byte("1"))

	ctx := context.Background()
	seg := newWritableSeg()
	if err := s.DrainInto(ctx, seg); err != nil {
		t.Fatalf("DrainInto: %v", err)
	}

	other := newWritableSeg()
	s.Restore(other)

	if s.HasDirty(ctx) {
		t.Fatal("expected Restore with the wrong segment to be a no-op")
	}
}

func TestFitsSingleBoundsOnByteBudget(t *testing.T) {
	s := New(100)
	if !s.FitsSingle(context.Background(), 1, 100) {
		t.Fatal("expected a reservation exactly at budget to fit")
	}
	if s.FitsSingle(context.Background(), 1, 101) {
		t.Fatal("expected a reservation over budget to not fit")
	}
}
