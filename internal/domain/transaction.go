package domain

// EnrichedTransaction is the subset of an enriched transaction used by the parser.
type EnrichedTransaction struct {
	Signature   string `json:"signature"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Source      string `json:"source"`
	Fee         int64  `json:"fee"`
	FeePayer    string `json:"feePayer"`
	Slot        int64  `json:"slot"`
	Timestamp   int64  `json:"timestamp"` // unix seconds
}
