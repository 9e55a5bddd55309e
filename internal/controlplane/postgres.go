package controlplane

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/wovenfs/txncore/internal/txn"
)

// PostgresClient is a Postgres-backed ControlClient: a manifest table for
// recorded segments and a single-row sequence table updated within a
// transaction so AdvanceSeq is atomic with respect to concurrent callers.
type PostgresClient struct {
	db *sql.DB
}

// NewPostgresClient opens a connection pool against dsn and ensures the
// schema this client needs exists.
func NewPostgresClient(ctx context.Context, dsn string) (*PostgresClient, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresClient{db: db}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS txncore_manifest (
			segno BIGINT PRIMARY KEY,
			level SMALLINT NOT NULL,
			total_bytes BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS txncore_sequence (
			id SMALLINT PRIMARY KEY DEFAULT 1,
			segno_counter BIGINT NOT NULL DEFAULT 0,
			seq_counter BIGINT NOT NULL DEFAULT 0,
			CHECK (id = 1)
		)`,
		`INSERT INTO txncore_sequence (id, segno_counter, seq_counter)
			VALUES (1, 0, 0) ON CONFLICT (id) DO NOTHING`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *PostgresClient) Close() error { return c.db.Close() }

// AllocSegno implements txn.ControlClient.
func (c *PostgresClient) AllocSegno(ctx context.Context) (uint64, error) {
	var segno uint64
	row := c.db.QueryRowContext(ctx,
		`UPDATE txncore_sequence SET segno_counter = segno_counter + 1
		 WHERE id = 1 RETURNING segno_counter`)
	if err := row.Scan(&segno); err != nil {
		return 0, err
	}
	return segno, nil
}

// RecordSegment implements txn.ControlClient. The upsert, keyed by segno,
// makes a repeated call for the same segment number idempotent rather
// than producing a duplicate manifest row.
func (c *PostgresClient) RecordSegment(ctx context.Context, seg txn.Segment, level uint8) error {
	segno, ok := seg.(interface{ Segno() uint64 })
	if !ok {
		return nil
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO txncore_manifest (segno, level, total_bytes) VALUES ($1, $2, $3)
		 ON CONFLICT (segno) DO UPDATE SET level = EXCLUDED.level, total_bytes = EXCLUDED.total_bytes`,
		segno.Segno(), level, seg.TotalBytes())
	return err
}

// AdvanceSeq implements txn.ControlClient.
func (c *PostgresClient) AdvanceSeq(ctx context.Context, currentSeq *uint64) error {
	var seq uint64
	row := c.db.QueryRowContext(ctx,
		`UPDATE txncore_sequence SET seq_counter = seq_counter + 1
		 WHERE id = 1 RETURNING seq_counter`)
	if err := row.Scan(&seq); err != nil {
		return err
	}
	*currentSeq = seq
	return nil
}
