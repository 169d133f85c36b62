package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/storage"
)

func TestSwapStore_InsertSwaps(t *testing.T) {
	store := NewSwapStore()
	ctx := context.Background()

	require.NoError(t, store.InsertSwaps(ctx, nil))
	require.NoError(t, store.InsertSwaps(ctx, []domain.Swap{
		{Signature: "s1", Token: "A", Amount: 1},
		{Signature: "s2", Token: "B", Amount: 2},
	}))
	require.NoError(t, store.InsertSwaps(ctx, []domain.Swap{{Signature: "s3", Token: "A", Amount: 3}}))

	got := store.Swaps()
	require.Len(t, got, 3)
	assert.Equal(t, "s1", got[0].Signature)
	assert.Equal(t, "s3", got[2].Signature)
}

func TestSwapStore_RejectsWholeBatch(t *testing.T) {
	store := NewSwapStore()

	err := store.InsertSwaps(context.Background(), []domain.Swap{
		{Signature: "s1", Token: "A"},
		{Signature: "", Token: "B"},
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
	assert.Empty(t, store.Swaps())
}
