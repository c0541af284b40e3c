// Package service provides the business logic layer (use cases).
// ReportService orchestrates the default-rate engine on top of the
// document source.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmenezes/fomento-report-api/internal/domain"
	"github.com/dmenezes/fomento-report-api/internal/engine"
	"github.com/dmenezes/fomento-report-api/internal/infra/observability"
	"github.com/dmenezes/fomento-report-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var reportTracer = otel.Tracer("service/reports")

// ReportService computes default-rate series and snapshots.
type ReportService struct {
	docs    port.DocumentSource
	mailer  port.ReportMailer
	metrics *observability.Metrics
	logger  *zap.Logger

	recipients []string
}

// NewReportService creates a new report service.
func NewReportService(docs port.DocumentSource, mailer port.ReportMailer, recipients []string, metrics *observability.Metrics, logger *zap.Logger) *ReportService {
	return &ReportService{
		docs:       docs,
		mailer:     mailer,
		recipients: recipients,
		metrics:    metrics,
		logger:     logger,
	}
}

// ParseRangeDate accepts YYYY-MM-DD and YYYY-MM inputs. A month-only value
// is normalized to the 15th of that month.
func ParseRangeDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, &domain.ErrValidation{Field: field, Message: "required"}
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return engine.DateOnly(t), nil
	}
	if t, err := time.Parse("2006-01", value); err == nil {
		return time.Date(t.Year(), t.Month(), 15, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, &domain.ErrValidation{Field: field, Message: "expected YYYY-MM-DD or YYYY-MM"}
}

// RateSeries computes the default-rate time series for [start, end] at the
// given granularity.
func (s *ReportService) RateSeries(ctx context.Context, start, end time.Time, granularity engine.Granularity) (*domain.RateSeriesResponse, error) {
	ctx, span := reportTracer.Start(ctx, "ReportService.RateSeries")
	defer span.End()
	span.SetAttributes(
		attribute.String("range.start", start.Format(time.DateOnly)),
		attribute.String("range.end", end.Format(time.DateOnly)),
		attribute.String("granularity", string(granularity)),
	)

	if end.Before(start) {
		return nil, &domain.ErrInvalidRange{Start: start.Format(time.DateOnly), End: end.Format(time.DateOnly)}
	}

	requestID := uuid.NewString()
	began := time.Now()

	docs, err := s.docs.ListDocumentsInRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	portfolio := engine.NewPortfolio(docs)
	points, err := portfolio.RateSeries(ctx, start, end, granularity)
	if err != nil {
		return nil, err
	}

	days, _ := engine.BusinessDays(start, end)
	s.metrics.RecordSeries(string(granularity), len(days))
	s.metrics.RecordRequestDuration("rate_series", time.Since(began))
	s.logger.Info("rate series computed",
		zap.String("request_id", requestID),
		zap.String("granularity", string(granularity)),
		zap.Int("documents", portfolio.Size()),
		zap.Int("points", len(points)),
		zap.Duration("elapsed", time.Since(began)),
	)

	return &domain.RateSeriesResponse{Data: points}, nil
}

// CurrentRate computes today's default-rate snapshot over open documents.
func (s *ReportService) CurrentRate(ctx context.Context) (*domain.CurrentRateSnapshot, error) {
	ctx, span := reportTracer.Start(ctx, "ReportService.CurrentRate")
	defer span.End()

	began := time.Now()
	docs, err := s.docs.ListOpenDocuments(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := engine.NewPortfolio(docs).CurrentRate(engine.DateOnly(time.Now()))
	s.metrics.RecordRequestDuration("current_rate", time.Since(began))
	return &snapshot, nil
}

// EmailCurrentRate renders the current snapshot as an HTML report and sends
// it to the configured recipients.
func (s *ReportService) EmailCurrentRate(ctx context.Context) error {
	ctx, span := reportTracer.Start(ctx, "ReportService.EmailCurrentRate")
	defer span.End()

	if len(s.recipients) == 0 {
		return &domain.ErrValidation{Field: "recipients", Message: "no report recipients configured"}
	}

	snapshot, err := s.CurrentRate(ctx)
	if err != nil {
		return err
	}

	today := time.Now().Format("02/01/2006")
	subject := fmt.Sprintf("Relatório de Inadimplência - %s", today)
	body := renderSnapshotHTML(today, snapshot)

	if err := s.mailer.SendReport(ctx, s.recipients, subject, body); err != nil {
		s.metrics.IncrReportMailed("error")
		return err
	}
	s.metrics.IncrReportMailed("success")
	return nil
}

func renderSnapshotHTML(date string, snap *domain.CurrentRateSnapshot) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>Relatório de Inadimplência - %s</h2>", date)
	b.WriteString("<table border=\"1\" cellpadding=\"6\">")
	fmt.Fprintf(&b, "<tr><td>Títulos em aberto</td><td>%d</td></tr>", snap.OpenDocuments)
	fmt.Fprintf(&b, "<tr><td>Títulos vencidos</td><td>%d</td></tr>", snap.OverdueDocuments)
	fmt.Fprintf(&b, "<tr><td>Valor em aberto</td><td>R$ %.2f</td></tr>", snap.OpenValue)
	fmt.Fprintf(&b, "<tr><td>Valor vencido</td><td>R$ %.2f</td></tr>", snap.OverdueValue)
	fmt.Fprintf(&b, "<tr><td>Inadimplência (quantidade)</td><td>%.2f%%</td></tr>", snap.DefaultRatePercent)
	fmt.Fprintf(&b, "<tr><td>Inadimplência (valor)</td><td>%.2f%%</td></tr>", snap.DefaultRateValuePercent)
	b.WriteString("</table></body></html>")
	return b.String()
}
