// Package leaderboard ranks tokens by windowed volume and builds reports.
package leaderboard

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"raydium-swap-monitor/internal/domain"
)

const (
	// DefaultTopN is the leaderboard length.
	DefaultTopN = 10
	// MaxTopN caps the leaderboard length.
	MaxTopN = 10
	// DefaultWindow is the trailing aggregation window.
	DefaultWindow = 180 * time.Second
)

// Ranked is a token with its windowed volume.
type Ranked struct {
	Token       domain.Token
	WindowTotal float64
	WindowSwaps int
}

// Window sums swaps strictly newer than now-window.
func Window(swaps []domain.Swap, now time.Time, window time.Duration) (total float64, count int) {
	cutoff := now.Add(-window)
	for _, s := range swaps {
		if s.Time.After(cutoff) {
			total += s.Amount
			count++
		}
	}
	return total, count
}

// Rank orders every token by windowed total descending, ties broken by
// address ascending, and returns at most topN entries.
func Rank(tokens map[string]domain.Token, now time.Time, window time.Duration, topN int) []Ranked {
	if topN <= 0 || topN > MaxTopN {
		topN = MaxTopN
	}

	ranked := make([]Ranked, 0, len(tokens))
	for _, tok := range tokens {
		total, count := Window(tok.Swaps, now, window)
		ranked = append(ranked, Ranked{Token: tok, WindowTotal: total, WindowSwaps: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].WindowTotal != ranked[j].WindowTotal {
			return ranked[i].WindowTotal > ranked[j].WindowTotal
		}
		return ranked[i].Token.Address < ranked[j].Token.Address
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// MarketCap estimates market capitalization in fiat:
// totalSupply * price (native per token) * fiatRate (fiat per native).
func MarketCap(totalSupply decimal.Decimal, price, fiatRate float64) decimal.Decimal {
	return totalSupply.
		Mul(decimal.NewFromFloat(price)).
		Mul(decimal.NewFromFloat(fiatRate))
}
