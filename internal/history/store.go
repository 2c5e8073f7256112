// Package history keeps a Postgres record of finished conversions.
package history

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/adifgen/internal/core"
)

// Schema creates the conversions table. It is safe to run on every start.
const Schema = `
CREATE TABLE IF NOT EXISTS conversions (
    id            UUID PRIMARY KEY,
    file_name     TEXT NOT NULL DEFAULT '',
    station_call  TEXT NOT NULL,
    operator      TEXT NOT NULL,
    my_reference  TEXT NOT NULL,
    his_reference TEXT NOT NULL DEFAULT '',
    status        TEXT NOT NULL,
    records       INTEGER NOT NULL,
    failures      INTEGER NOT NULL,
    duration_ms   BIGINT NOT NULL,
    ip_address    INET,
    user_agent    TEXT NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS conversions_station_created_idx
    ON conversions (station_call, created_at DESC);
`

const insertConversion = `
INSERT INTO conversions (
    id, file_name, station_call, operator, my_reference, his_reference,
    status, records, failures, duration_ms, ip_address, user_agent, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO NOTHING`

// DBTX is the subset of pgxpool.Pool (and pgx.Tx) used by Store.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store writes conversion summaries to Postgres.
type Store struct {
	db DBTX
}

// NewStore creates a Store on db.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the conversions table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure history schema: %w", err)
	}
	return nil
}

// Record inserts one summary. Re-recording the same ID is a no-op.
func (s *Store) Record(ctx context.Context, summary core.ConversionSummary) error {
	id, err := toPgUUID(summary.ID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, insertConversion,
		id,
		summary.FileName,
		summary.StationCall,
		summary.Operator,
		summary.MyReference,
		summary.HisReference,
		string(summary.Status),
		summary.Records,
		summary.Failures,
		summary.Duration.Milliseconds(),
		toInet(summary.IPAddress),
		summary.UserAgent,
		pgtype.Timestamptz{Time: summary.CreatedAt, Valid: !summary.CreatedAt.IsZero()},
	)
	if err != nil {
		return fmt.Errorf("record conversion %s: %w", summary.ID, err)
	}
	return nil
}

func toPgUUID(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("invalid conversion id %q: %w", s, err)
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

// toInet returns nil for a missing or unparsable address so the column stays NULL.
func toInet(ip string) *netip.Addr {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return nil
	}
	return &addr
}

// Noop discards every summary. It is used when no database is configured.
type Noop struct{}

// Record does nothing.
func (Noop) Record(context.Context, core.ConversionSummary) error { return nil }
