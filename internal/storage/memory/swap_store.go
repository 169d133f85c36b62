package memory

import (
	"context"
	"sync"

	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/storage"
)

// SwapStore is an in-memory implementation of storage.SwapStore.
type SwapStore struct {
	mu    sync.RWMutex
	swaps []domain.Swap
}

// NewSwapStore creates a new in-memory swap store.
func NewSwapStore() *SwapStore {
	return &SwapStore{}
}

// Compile-time interface check.
var _ storage.SwapStore = (*SwapStore)(nil)

// InsertSwaps appends swaps. The whole batch is rejected if any swap is invalid.
func (s *SwapStore) InsertSwaps(_ context.Context, swaps []domain.Swap) error {
	for _, sw := range swaps {
		if sw.Signature == "" || sw.Token == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.swaps = append(s.swaps, swaps...)
	return nil
}

// Swaps returns stored swaps in insertion order.
func (s *SwapStore) Swaps() []domain.Swap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Swap(nil), s.swaps...)
}
