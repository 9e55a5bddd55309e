package controlplane

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/wovenfs/txncore/internal/segment"
)

// Scenario 8: Redis-backed control client. Two sequential commits produce
// a strictly increasing sequence number and two distinct manifest entries.
func TestRedisClientTwoSequentialCommits(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err, "miniredis.Run")
	defer mr.Close()

	client := NewRedisClient(RedisConfig{Addr: mr.Addr(), Namespace: "test"})
	defer client.Close()

	ctx := context.Background()
	writer := segment.New(segment.Config{})

	// First commit.
	segno1, err := client.AllocSegno(ctx)
	require.NoError(t, err, "AllocSegno (1)")
	seg1, err := writer.New(ctx, segno1)
	require.NoError(t, err, "writer.New (1)")
	seg1.(interface{ AppendItem(string, []byte) }).AppendItem("a", []byte("1"))
	require.NoError(t, client.RecordSegment(ctx, seg1, 0), "RecordSegment (1)")
	var seq1 uint64
	require.NoError(t, client.AdvanceSeq(ctx, &seq1), "AdvanceSeq (1)")

	// Second commit.
	segno2, err := client.AllocSegno(ctx)
	require.NoError(t, err, "AllocSegno (2)")
	require.NotEqual(t, segno1, segno2, "expected distinct segment numbers")
	seg2, err := writer.New(ctx, segno2)
	require.NoError(t, err, "writer.New (2)")
	seg2.(interface{ AppendItem(string, []byte) }).AppendItem("b", []byte("2"))
	require.NoError(t, client.RecordSegment(ctx, seg2, 0), "RecordSegment (2)")
	var seq2 uint64
	require.NoError(t, client.AdvanceSeq(ctx, &seq2), "AdvanceSeq (2)")

	require.Greater(t, seq2, seq1, "expected strictly increasing sequence numbers")

	entries, err := mr.HKeys("test:manifest")
	require.NoError(t, err, "HKeys")
	require.Len(t, entries, 2, "expected two distinct manifest entries")
}
