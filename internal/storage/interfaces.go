package storage

import (
	"context"

	"raydium-swap-monitor/internal/domain"
)

// ReportStore archives emitted leaderboards. It is write-only: nothing in
// the monitor reads reports back.
type ReportStore interface {
	// InsertReport stores the report header and all its entries atomically.
	// Returns ErrDuplicateKey if the report ID exists, ErrInvalidInput for a
	// nil report or zero ID.
	InsertReport(ctx context.Context, r *domain.Report) error
}

// SwapStore archives recorded swaps as an append-only time series.
type SwapStore interface {
	// InsertSwaps appends swaps in one batch. Returns ErrInvalidInput if any
	// swap lacks a signature or token; nothing is written in that case.
	InsertSwaps(ctx context.Context, swaps []domain.Swap) error
}
