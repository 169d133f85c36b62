// Package stub provides in-memory collaborators for ingestion tests.
package stub

import (
	"context"
	"sync"

	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/solana"
)

// StubEnricher resolves signatures from a fixed map.
// Implements ingestion.Enricher interface.
type StubEnricher struct {
	mu      sync.Mutex
	txs     map[string]*domain.EnrichedTransaction
	err     error
	batches [][]string
}

// NewStubEnricher creates a stub enricher with the given transactions.
func NewStubEnricher(txs []*domain.EnrichedTransaction) *StubEnricher {
	m := make(map[string]*domain.EnrichedTransaction, len(txs))
	for _, tx := range txs {
		m[tx.Signature] = tx
	}
	return &StubEnricher{txs: m}
}

// FailWith makes every subsequent call return err.
func (s *StubEnricher) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// GetTransactions returns one entry per signature, nil for unknown ones.
func (s *StubEnricher) GetTransactions(_ context.Context, signatures []string) ([]*domain.EnrichedTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches = append(s.batches, append([]string(nil), signatures...))
	if s.err != nil {
		return nil, s.err
	}
	result := make([]*domain.EnrichedTransaction, len(signatures))
	for i, sig := range signatures {
		if tx, ok := s.txs[sig]; ok {
			copy := *tx
			result[i] = &copy
		}
	}
	return result, nil
}

// Batches returns the signature batches received so far.
func (s *StubEnricher) Batches() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.batches...)
}

// StubWSClient delivers notifications pushed by the test.
// Implements solana.WSClient interface.
type StubWSClient struct {
	mu      sync.Mutex
	ch      chan solana.LogNotification
	filters []solana.LogsFilter
	err     error
	closed  bool
}

// NewStubWSClient creates a stub with a buffered notification channel.
func NewStubWSClient() *StubWSClient {
	return &StubWSClient{ch: make(chan solana.LogNotification, 64)}
}

// FailSubscribe makes SubscribeLogs return err.
func (s *StubWSClient) FailSubscribe(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SubscribeLogs records the filter and returns the shared channel.
func (s *StubWSClient) SubscribeLogs(_ context.Context, filter solana.LogsFilter) (<-chan solana.LogNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.filters = append(s.filters, filter)
	return s.ch, nil
}

// Send delivers a notification to the subscriber.
func (s *StubWSClient) Send(n solana.LogNotification) {
	s.ch <- n
}

// Filters returns the filters passed to SubscribeLogs.
func (s *StubWSClient) Filters() []solana.LogsFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]solana.LogsFilter(nil), s.filters...)
}

// Close closes the notification channel.
func (s *StubWSClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	return nil
}

var _ solana.WSClient = (*StubWSClient)(nil)
