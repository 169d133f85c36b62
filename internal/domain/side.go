package domain

// TransactionSide is the inferred direction of a swap relative to the token.
type TransactionSide string

const (
	SideBuy  TransactionSide = "BUY"
	SideSell TransactionSide = "SELL"
)

// String returns the string representation of TransactionSide.
func (s TransactionSide) String() string {
	return string(s)
}

// IsValid checks if the side is a valid value.
func (s TransactionSide) IsValid() bool {
	return s == SideBuy || s == SideSell
}
