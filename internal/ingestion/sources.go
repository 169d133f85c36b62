package ingestion

import (
	"context"
	"time"

	"raydium-swap-monitor/internal/domain"
)

// Scheduler defers a signature until a point in time.
type Scheduler interface {
	// Schedule returns false when the scheduler no longer accepts work.
	Schedule(signature string, at time.Time) bool
}

// Enricher resolves signatures into enriched transactions.
type Enricher interface {
	// GetTransactions returns one entry per resolved signature, nil for misses.
	GetTransactions(ctx context.Context, signatures []string) ([]*domain.EnrichedTransaction, error)
}

// SwapParser extracts a swap from an enriched transaction.
type SwapParser interface {
	Parse(tx *domain.EnrichedTransaction) (*domain.Swap, error)
}

// SwapRecorder accepts parsed swaps. Record returns the tracked token count.
type SwapRecorder interface {
	Record(swap domain.Swap) int
}

// SwapArchive persists the swaps recorded from one batch.
type SwapArchive interface {
	InsertSwaps(ctx context.Context, swaps []domain.Swap) error
}
