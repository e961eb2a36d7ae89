package storage

import (
	"context"
	"fmt"

	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

// ReportsFile is the artifact collecting generated reports.
const ReportsFile = "reports.json"

// ReportLog appends reports to a JSON artifact.
type ReportLog struct {
	store ports.ArtifactStore
}

var _ ports.ReportRepository = (*ReportLog)(nil)

// NewReportLog wraps an artifact store.
func NewReportLog(store ports.ArtifactStore) *ReportLog {
	return &ReportLog{store: store}
}

// AppendReport adds report at the end of the collection.
func (l *ReportLog) AppendReport(_ context.Context, report domain.Report) error {
	var log domain.ReportLog
	l.store.ReadJSON(ReportsFile, &log)
	log.Reports = append(log.Reports, report)
	if err := l.store.WriteJSON(ReportsFile, log); err != nil {
		return fmt.Errorf("append report: %w", err)
	}
	return nil
}

// ListReports returns every stored report, oldest first.
func (l *ReportLog) ListReports(_ context.Context) ([]domain.Report, error) {
	var log domain.ReportLog
	l.store.ReadJSON(ReportsFile, &log)
	return log.Reports, nil
}
