package domain

import "github.com/shopspring/decimal"

// MintDetails represents SPL token mint account state.
// Immutable once fetched.
type MintDetails struct {
	Address         string
	Decimals        int
	FreezeAuthority *string // nullable
	MintAuthority   *string // nullable
	IsInitialized   bool
	RawSupply       string          // u64 supply as string to avoid precision loss
	TotalSupply     decimal.Decimal // RawSupply / 10^Decimals
}

// NewMintDetails builds MintDetails deriving TotalSupply from the raw supply.
func NewMintDetails(address string, rawSupply string, decimals int) (*MintDetails, error) {
	raw, err := decimal.NewFromString(rawSupply)
	if err != nil {
		return nil, err
	}
	return &MintDetails{
		Address:     address,
		Decimals:    decimals,
		RawSupply:   rawSupply,
		TotalSupply: raw.Shift(int32(-decimals)),
	}, nil
}
