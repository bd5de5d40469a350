package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolSnapshot/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS pool_rollups (
	granularity      TEXT        NOT NULL,
	period           TEXT        NOT NULL,
	pool_id          TEXT        NOT NULL,
	pool_address     TEXT        NOT NULL,
	avg_tvl_usd      NUMERIC     NOT NULL,
	total_volume_usd NUMERIC     NOT NULL,
	avg_apr_7d       NUMERIC     NOT NULL,
	avg_reserve_0    NUMERIC     NOT NULL,
	avg_reserve_1    NUMERIC     NOT NULL,
	avg_total_share  NUMERIC     NOT NULL,
	snapshot_count   BIGINT      NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (granularity, period, pool_id)
);
CREATE TABLE IF NOT EXISTS vote_snapshots (
	period                 INTEGER          PRIMARY KEY,
	captured_at            TIMESTAMPTZ      NOT NULL,
	total_expected_rewards DOUBLE PRECISION NOT NULL,
	payload                JSONB            NOT NULL,
	updated_at             TIMESTAMPTZ      NOT NULL DEFAULT now()
);`

// Store mirrors rollups and vote snapshots into Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the mirror tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// PutAggregates inserts or updates the rows of one rollup file.
func (s *Store) PutAggregates(ctx context.Context, granularity string, records []model.AggregateRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO pool_rollups (
				granularity, period, pool_id, pool_address, avg_tvl_usd, total_volume_usd, avg_apr_7d,
				avg_reserve_0, avg_reserve_1, avg_total_share, snapshot_count, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now(),now())
			ON CONFLICT (granularity, period, pool_id)
			DO UPDATE SET
				pool_address = EXCLUDED.pool_address,
				avg_tvl_usd = EXCLUDED.avg_tvl_usd,
				total_volume_usd = EXCLUDED.total_volume_usd,
				avg_apr_7d = EXCLUDED.avg_apr_7d,
				avg_reserve_0 = EXCLUDED.avg_reserve_0,
				avg_reserve_1 = EXCLUDED.avg_reserve_1,
				avg_total_share = EXCLUDED.avg_total_share,
				snapshot_count = EXCLUDED.snapshot_count,
				updated_at = now()
		`,
			granularity,
			r.Period,
			r.PoolID,
			r.PoolAddress,
			r.AvgTVLUSD,
			r.TotalVolumeUSD,
			r.AvgAPR7d,
			r.AvgReserve0,
			r.AvgReserve1,
			r.AvgTotalShare,
			r.SnapshotCount,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutVoteSnapshot upserts a vote snapshot keyed by its period.
func (s *Store) PutVoteSnapshot(ctx context.Context, snapshot *model.VoteSnapshot) error {
	if snapshot == nil || snapshot.Period == nil {
		return nil
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal vote snapshot: %w", err)
	}
	capturedAt, err := time.Parse(time.RFC3339Nano, snapshot.CapturedAt)
	if err != nil {
		return fmt.Errorf("parse captured_at: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO vote_snapshots (period, captured_at, total_expected_rewards, payload, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (period) DO UPDATE
		SET captured_at = EXCLUDED.captured_at,
			total_expected_rewards = EXCLUDED.total_expected_rewards,
			payload = EXCLUDED.payload,
			updated_at = now()
	`, *snapshot.Period, capturedAt, snapshot.TotalExpectedRewards, payload)
	return err
}
