package sink

import (
	"context"

	"raydium-swap-monitor/internal/domain"
	"raydium-swap-monitor/internal/storage"
)

// ArchiveSink appends reports to a storage.ReportStore, e.g. the Postgres
// leaderboard archive.
type ArchiveSink struct {
	store storage.ReportStore
	name  string
}

// NewArchiveSink wraps store. name labels the sink ("postgres" for the SQL archive).
func NewArchiveSink(store storage.ReportStore, name string) *ArchiveSink {
	if name == "" {
		name = "archive"
	}
	return &ArchiveSink{store: store, name: name}
}

// Emit stores the report.
func (s *ArchiveSink) Emit(ctx context.Context, report *domain.Report) error {
	return s.store.InsertReport(ctx, report)
}

// Name returns the configured label.
func (s *ArchiveSink) Name() string {
	return s.name
}
