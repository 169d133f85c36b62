// Package mint resolves SPL token mint details for tracked tokens.
package mint

import (
	"context"
	"errors"
	"fmt"

	"raydium-swap-monitor/internal/address"
	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/logger"
	"raydium-swap-monitor/internal/solana"
)

// ErrMintDetail wraps every failed lookup of a valid address.
var ErrMintDetail = errors.New("mint detail fetch failed")

// Fetcher retrieves mint details over RPC.
type Fetcher struct {
	rpc    solana.RPCClient
	logger *logger.Entry
}

// NewFetcher creates a Fetcher. A nil log discards debug output.
func NewFetcher(rpc solana.RPCClient, log *logger.Entry) *Fetcher {
	if log == nil {
		log = logger.Discard().WithComponent("mint")
	}
	return &Fetcher{rpc: rpc, logger: log}
}

// Fetch returns mint details for addr.
//
// Invalid addresses fail with address.ErrInvalidAddress before any RPC call.
// RPC and decoding failures are wrapped in ErrMintDetail.
func (f *Fetcher) Fetch(ctx context.Context, addr string) (*domain.MintDetails, error) {
	if err := address.Validate(addr); err != nil {
		return nil, err
	}

	info, err := f.rpc.GetMintInfo(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMintDetail, addr, err)
	}

	details, err := domain.NewMintDetails(addr, info.Supply, info.Decimals)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: supply %q: %v", ErrMintDetail, addr, info.Supply, err)
	}
	details.FreezeAuthority = info.FreezeAuthority
	details.MintAuthority = info.MintAuthority
	details.IsInitialized = info.IsInitialized

	if !address.IsOnCurve(addr) {
		f.logger.WithFields(logger.Fields{"mint": addr}).Debug("Mint address is off curve")
	}

	return details, nil
}
