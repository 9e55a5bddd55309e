package controlplane

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/wovenfs/txncore/internal/txn"
)

// RedisClient is a Redis-backed ControlClient: INCR for the sequence
// counter, a hash for the segment manifest.
type RedisClient struct {
	rdb           *redis.Client
	seqKey        string
	segnoKey      string
	manifestKey   string
}

// RedisConfig configures a RedisClient.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Namespace prefixes every key this client touches, so multiple
	// filesystems can share one Redis instance.
	Namespace string
}

// NewRedisClient returns a RedisClient. It does not ping the server; the
// first RPC surfaces any connectivity failure.
func NewRedisClient(cfg RedisConfig) *RedisClient {
	ns := cfg.Namespace
	if ns == "" {
		ns = "txncore"
	}
	return &RedisClient{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		seqKey:      ns + ":seq",
		segnoKey:    ns + ":segno",
		manifestKey: ns + ":manifest",
	}
}

// Close releases the underlying Redis connection pool.
func (c *RedisClient) Close() error { return c.rdb.Close() }

// AllocSegno implements txn.ControlClient.
func (c *RedisClient) AllocSegno(ctx context.Context) (uint64, error) {
	n, err := c.rdb.Incr(ctx, c.segnoKey).Result()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}

// RecordSegment implements txn.ControlClient.
func (c *RedisClient) RecordSegment(ctx context.Context, seg txn.Segment, level uint8) error {
	segno, ok := seg.(interface{ Segno() uint64 })
	if !ok {
		return nil
	}
	field := strconv.FormatUint(segno.Segno(), 10)
	value := strconv.FormatUint(seg.TotalBytes(), 10) + ":" + strconv.FormatUint(uint64(level), 10)
	return c.rdb.HSet(ctx, c.manifestKey, field, value).Err()
}

// AdvanceSeq implements txn.ControlClient.
func (c *RedisClient) AdvanceSeq(ctx context.Context, currentSeq *uint64) error {
	n, err := c.rdb.Incr(ctx, c.seqKey).Result()
	if err != nil {
		return err
	}
	*currentSeq = uint64(n)
	return nil
}
