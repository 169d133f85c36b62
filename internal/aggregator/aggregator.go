// Package aggregator owns per-token swap histories.
package aggregator

import (
	"sync"

	"github.com/shopspring/decimal"

	"raydium-swap-monitor/internal/domain"
)

// Aggregator maps token address to accumulated swap history.
// History is never evicted.
type Aggregator struct {
	mu     sync.RWMutex
	tokens map[string]*domain.Token
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{tokens: make(map[string]*domain.Token)}
}

// Record appends swap to its token's history and adds its amount to the total.
// Returns the number of tracked tokens after the update.
func (a *Aggregator) Record(swap domain.Swap) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	tok, ok := a.tokens[swap.Token]
	if !ok {
		tok = &domain.Token{Address: swap.Token}
		a.tokens[swap.Token] = tok
	}
	tok.Swaps = append(tok.Swaps, swap)
	tok.Total += swap.Amount
	return len(a.tokens)
}

// Snapshot returns copies of all tokens. Swap slices are capped so that
// later appends never alias the returned data.
func (a *Aggregator) Snapshot() map[string]domain.Token {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]domain.Token, len(a.tokens))
	for addr, tok := range a.tokens {
		cp := *tok
		cp.Swaps = tok.Swaps[:len(tok.Swaps):len(tok.Swaps)]
		out[addr] = cp
	}
	return out
}

// SetDetails caches mint details on a tracked token. Unknown addresses are ignored.
func (a *Aggregator) SetDetails(address string, details *domain.MintDetails) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if tok, ok := a.tokens[address]; ok {
		tok.Details = details
	}
}

// SetMarketCap stores the latest market cap estimate.
func (a *Aggregator) SetMarketCap(address string, mc decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if tok, ok := a.tokens[address]; ok {
		tok.MarketCap = &mc
	}
}

// Len returns the number of tracked tokens.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.tokens)
}
