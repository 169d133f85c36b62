package domain

import "github.com/shopspring/decimal"

// Token holds the accumulated swap history for one token address.
type Token struct {
	Address   string
	Swaps     []Swap           // append-only, chronological
	Total     float64          // sum of all swap amounts
	Details   *MintDetails     // nil until fetched
	MarketCap *decimal.Decimal // last computed estimate, nil if unknown
}

// LastSwap returns the most recent swap, or nil if there are none.
func (t *Token) LastSwap() *Swap {
	if len(t.Swaps) == 0 {
		return nil
	}
	return &t.Swaps[len(t.Swaps)-1]
}
