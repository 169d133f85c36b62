package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaderboardEntry is one ranked token in a report.
type LeaderboardEntry struct {
	Rank            int              `json:"rank"`
	Address         string           `json:"address"`
	WindowTotal     float64          `json:"totalSOL"`
	WindowSwaps     int              `json:"totalSwaps"`
	LastPrice       float64          `json:"lastPrice"`
	MarketCap       string           `json:"mc"`
	MarketCapValue  *decimal.Decimal `json:"marketCapValue,omitempty"`
	FreezeAuthority *string          `json:"freezeAuthority"`
}

// Report is the leaderboard emitted once per reporting interval.
type Report struct {
	ID            uuid.UUID          `json:"id"`
	GeneratedAt   time.Time          `json:"generatedAt"`
	Window        time.Duration      `json:"window"`
	TokensTracked int                `json:"tokensTracked"`
	Entries       []LeaderboardEntry `json:"entries"`
}
