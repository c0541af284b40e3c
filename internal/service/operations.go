package service

import (
	"context"
	"time"

	"github.com/dmenezes/fomento-report-api/internal/domain"
	"github.com/dmenezes/fomento-report-api/internal/infra/observability"
	"github.com/dmenezes/fomento-report-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var operationsTracer = otel.Tracer("service/operations")

// OperationsService exposes aggregated operation volume.
type OperationsService struct {
	ops     port.OperationsSource
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewOperationsService creates a new operations service.
func NewOperationsService(ops port.OperationsSource, metrics *observability.Metrics, logger *zap.Logger) *OperationsService {
	return &OperationsService{ops: ops, metrics: metrics, logger: logger}
}

// MonthlyVolume returns per-month volume over [start, end]. The bounds are
// widened to whole months so partial months are not silently truncated.
func (s *OperationsService) MonthlyVolume(ctx context.Context, start, end time.Time) (*domain.VolumeResponse, error) {
	ctx, span := operationsTracer.Start(ctx, "OperationsService.MonthlyVolume")
	defer span.End()
	span.SetAttributes(attribute.String("type", "monthly"))

	if end.Before(start) {
		return nil, &domain.ErrInvalidRange{Start: start.Format(time.DateOnly), End: end.Format(time.DateOnly)}
	}

	monthStart := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)

	began := time.Now()
	points, err := s.ops.MonthlyVolume(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRequestDuration("monthly_volume", time.Since(began))
	return &domain.VolumeResponse{Data: points}, nil
}

// DailyVolume returns per-business-day volume over [start, end].
func (s *OperationsService) DailyVolume(ctx context.Context, start, end time.Time) (*domain.VolumeResponse, error) {
	ctx, span := operationsTracer.Start(ctx, "OperationsService.DailyVolume")
	defer span.End()
	span.SetAttributes(attribute.String("type", "daily"))

	if end.Before(start) {
		return nil, &domain.ErrInvalidRange{Start: start.Format(time.DateOnly), End: end.Format(time.DateOnly)}
	}

	began := time.Now()
	points, err := s.ops.DailyVolume(ctx, start, end)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRequestDuration("daily_volume", time.Since(began))
	return &domain.VolumeResponse{Data: points}, nil
}
