package clickhouse

import (
	"context"
	"fmt"

	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/storage"
)

// SwapStore implements storage.SwapStore using ClickHouse.
// Rows are keyed by (token, signature) in a ReplacingMergeTree, so a
// signature enriched twice collapses on merge.
type SwapStore struct {
	conn *Conn
}

// NewSwapStore creates a new SwapStore.
func NewSwapStore(conn *Conn) *SwapStore {
	return &SwapStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SwapStore = (*SwapStore)(nil)

// InsertSwaps appends swaps in a single native batch.
func (s *SwapStore) InsertSwaps(ctx context.Context, swaps []domain.Swap) error {
	if len(swaps) == 0 {
		return nil
	}
	for _, sw := range swaps {
		if sw.Signature == "" || sw.Token == "" {
			return storage.ErrInvalidInput
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO swaps (
			signature, token, side, price, amount, source, description, observed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sw := range swaps {
		err = batch.Append(
			sw.Signature, sw.Token, sw.Side.String(), sw.Price, sw.Amount,
			sw.Source, sw.Description, sw.Time.UTC(),
		)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}
