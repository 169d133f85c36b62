package stub

import (
	"context"
	"sync"

	"raydium-swap-monitor/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu     sync.Mutex
	Mints  map[string]*solana.MintInfo
	Errors map[string]error
	Slot   int64
	Calls  map[string]int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Mints:  make(map[string]*solana.MintInfo),
		Errors: make(map[string]error),
		Calls:  make(map[string]int),
	}
}

// GetMintInfo returns the stored mint, the stored error, or ErrAccountNotFound.
func (c *RPCClient) GetMintInfo(_ context.Context, address string) (*solana.MintInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Calls[address]++
	if err, ok := c.Errors[address]; ok {
		return nil, err
	}
	info, ok := c.Mints[address]
	if !ok {
		return nil, solana.ErrAccountNotFound
	}
	infoCopy := *info
	return &infoCopy, nil
}

// GetSlot returns the configured slot.
func (c *RPCClient) GetSlot(_ context.Context) (int64, error) {
	return c.Slot, nil
}

// AddMint adds a mint to the stub store.
func (c *RPCClient) AddMint(address string, info *solana.MintInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Mints[address] = info
}

// FailMint makes every lookup of address return err.
func (c *RPCClient) FailMint(address string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Errors[address] = err
}

// CallCount returns how many times address was looked up.
func (c *RPCClient) CallCount(address string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Calls[address]
}

var _ solana.RPCClient = (*RPCClient)(nil)
