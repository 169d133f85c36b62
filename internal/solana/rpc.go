package solana

import "context"

// RPCClient defines the Solana JSON-RPC calls used by the monitor.
type RPCClient interface {
	// GetMintInfo retrieves parsed SPL token mint state for an address.
	GetMintInfo(ctx context.Context, address string) (*MintInfo, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)
}

// MintInfo is the jsonParsed "info" object of an SPL token mint account.
type MintInfo struct {
	Supply          string  `json:"supply"`
	Decimals        int     `json:"decimals"`
	FreezeAuthority *string `json:"freezeAuthority"`
	MintAuthority   *string `json:"mintAuthority"`
	IsInitialized   bool    `json:"isInitialized"`
}
