package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/storage"
)

// ReportStore is an in-memory implementation of storage.ReportStore.
type ReportStore struct {
	mu      sync.RWMutex
	ids     map[uuid.UUID]struct{}
	reports []*domain.Report
}

// NewReportStore creates a new in-memory report store.
func NewReportStore() *ReportStore {
	return &ReportStore{
		ids: make(map[uuid.UUID]struct{}),
	}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

// InsertReport stores a copy of r. Returns ErrDuplicateKey if the ID exists.
func (s *ReportStore) InsertReport(_ context.Context, r *domain.Report) error {
	if r == nil || r.ID == uuid.Nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[r.ID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	copy.Entries = append([]domain.LeaderboardEntry(nil), r.Entries...)
	s.ids[r.ID] = struct{}{}
	s.reports = append(s.reports, &copy)
	return nil
}

// Reports returns stored reports in insertion order.
func (s *ReportStore) Reports() []*domain.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*domain.Report(nil), s.reports...)
}

// Len returns the number of stored reports.
func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}
