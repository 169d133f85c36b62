package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/storage"
)

// ReportStore implements storage.ReportStore using PostgreSQL.
type ReportStore struct {
	pool *Pool
}

// NewReportStore creates a new ReportStore.
func NewReportStore(pool *Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

const (
	insertReportSQL = `
		INSERT INTO leaderboard_reports (id, generated_at, window_seconds, tokens_tracked)
		VALUES ($1, $2, $3, $4)
	`
	insertEntrySQL = `
		INSERT INTO leaderboard_entries (
			report_id, rank, token_address, window_total, window_swaps,
			last_price, market_cap, market_cap_display, freeze_authority
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::numeric, $8, $9)
	`
)

// InsertReport writes the report and its entries in one transaction using a
// single batch round trip.
func (s *ReportStore) InsertReport(ctx context.Context, r *domain.Report) error {
	if r == nil || r.ID == uuid.Nil {
		return storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(insertReportSQL,
		r.ID,
		r.GeneratedAt,
		int(r.Window.Seconds()),
		r.TokensTracked,
	)
	for _, e := range r.Entries {
		var marketCap string
		if e.MarketCapValue != nil {
			marketCap = e.MarketCapValue.String()
		}
		batch.Queue(insertEntrySQL,
			r.ID,
			e.Rank,
			e.Address,
			e.WindowTotal,
			e.WindowSwaps,
			e.LastPrice,
			marketCap,
			e.MarketCap,
			e.FreezeAuthority,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert report %s: %w", r.ID, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
