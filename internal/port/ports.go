// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/dmenezes/fomento-report-api/internal/domain"
)

// DocumentSource retrieves receivable documents from persistence.
// Implemented by the Postgres adapter (or any other persistence layer).
type DocumentSource interface {
	// ListDocumentsInRange returns every document that could be part of the
	// portfolio at some day within [start, end]: issued on or before end and
	// either still open or settled on or after start.
	ListDocumentsInRange(ctx context.Context, start, end time.Time) ([]domain.Document, error)

	// ListOpenDocuments returns documents that are currently open and carry
	// a due date, the base set for the current-rate snapshot.
	ListOpenDocuments(ctx context.Context) ([]domain.Document, error)
}

// OperationsSource retrieves aggregated operation data.
type OperationsSource interface {
	MonthlyVolume(ctx context.Context, start, end time.Time) ([]domain.VolumePoint, error)
	DailyVolume(ctx context.Context, start, end time.Time) ([]domain.VolumePoint, error)

	// ChurnCandidates returns the top clients by historical volume whose
	// last operation is older than minIdleDays.
	ChurnCandidates(ctx context.Context, minIdleDays, limit int) ([]domain.ChurnRow, error)
}

// ReportMailer delivers rendered reports by e-mail.
type ReportMailer interface {
	SendReport(ctx context.Context, to []string, subject, htmlBody string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
