package service

import (
	"context"
	"time"

	"github.com/dmenezes/fomento-report-api/internal/domain"
	"github.com/dmenezes/fomento-report-api/internal/infra/observability"
	"github.com/dmenezes/fomento-report-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var comercialTracer = otel.Tracer("service/comercial")

const churnCacheKey = "churn-analysis"

// ComercialService produces client retention analyses.
type ComercialService struct {
	ops      port.OperationsSource
	cache    port.Cache[[]domain.ChurnClient]
	idleDays int
	topN     int
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewComercialService creates a new comercial service.
func NewComercialService(ops port.OperationsSource, cache port.Cache[[]domain.ChurnClient], idleDays, topN int, metrics *observability.Metrics, logger *zap.Logger) *ComercialService {
	return &ComercialService{
		ops:      ops,
		cache:    cache,
		idleDays: idleDays,
		topN:     topN,
		metrics:  metrics,
		logger:   logger,
	}
}

// ChurnAnalysis returns the top inactive clients by historical volume, each
// classified by churn risk. Results are cached since the underlying query is
// expensive and the data changes slowly.
func (s *ComercialService) ChurnAnalysis(ctx context.Context) ([]domain.ChurnClient, error) {
	ctx, span := comercialTracer.Start(ctx, "ComercialService.ChurnAnalysis")
	defer span.End()

	if cached, ok := s.cache.Get(churnCacheKey); ok {
		s.metrics.IncrCacheHit("churn")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("churn")

	began := time.Now()
	rows, err := s.ops.ChurnCandidates(ctx, s.idleDays, s.topN)
	if err != nil {
		return nil, err
	}

	clients := make([]domain.ChurnClient, 0, len(rows))
	for _, r := range rows {
		clients = append(clients, domain.ChurnClient{
			Cliente:         r.ClientName,
			UltimaOperacao:  r.LastOperation.Format(time.DateOnly),
			DiasInativo:     r.DaysInactive,
			VolumeHistorico: r.HistoricalVolume,
			Risco:           classifyChurnRisk(r.DaysInactive),
		})
	}

	s.cache.Set(churnCacheKey, clients)
	s.metrics.RecordRequestDuration("churn_analysis", time.Since(began))
	s.logger.Info("churn analysis computed",
		zap.Int("clients", len(clients)),
		zap.Duration("elapsed", time.Since(began)),
	)
	return clients, nil
}

func classifyChurnRisk(daysInactive int) string {
	switch {
	case daysInactive > 180:
		return domain.ChurnRiskHigh
	case daysInactive > 120:
		return domain.ChurnRiskMedium
	default:
		return domain.ChurnRiskLow
	}
}
