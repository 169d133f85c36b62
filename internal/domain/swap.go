package domain

import "time"

// Swap represents one trade inferred from an enriched transaction description.
type Swap struct {
	Side        TransactionSide // BUY | SELL (only BUY is recorded)
	Token       string          // token address or symbol from the description
	Price       float64         // native amount / token amount
	Amount      float64         // native-asset amount, always > 0
	Time        time.Time       // processing time, not block time
	Source      string          // venue label reported by the enrichment API
	Signature   string          // transaction signature
	Description string          // raw description, kept for auditing
}
