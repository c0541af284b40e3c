package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmenezes/fomento-report-api/internal/domain"
	"github.com/dmenezes/fomento-report-api/internal/engine"
	"github.com/dmenezes/fomento-report-api/internal/infra/observability"
	"github.com/dmenezes/fomento-report-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger reports data source health for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(
	reportSvc *service.ReportService,
	opsSvc *service.OperationsService,
	comercialSvc *service.ComercialService,
	authSvc *service.AuthService,
	db Pinger,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(db))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Post("/auth/login", authLoginHandler(authSvc, logger))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(authSvc, logger))

			r.Get("/default-rate/series", rateSeriesHandler(reportSvc, logger))
			r.Get("/default-rate/current", currentRateHandler(reportSvc, logger))
			r.Post("/default-rate/email", emailReportHandler(reportSvc, logger))

			r.Get("/operations/volume", volumeHandler(opsSvc, logger))

			r.Get("/comercial/churn", churnHandler(comercialSvc, logger))

			r.Get("/metrics/engine", engineMetricsHandler(metrics))
		})
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":   "not ready",
					"database": err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// ============================================================
// Auth — POST /v1/auth/login
// ============================================================

func authLoginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := authSvc.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Default rate — GET /v1/default-rate/series
// ============================================================

func rateSeriesHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/default-rate/series")
		defer span.End()

		q := r.URL.Query()
		start, err := service.ParseRangeDate("start_date", q.Get("start_date"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		end, err := service.ParseRangeDate("end_date", q.Get("end_date"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		granularity := engine.ParseGranularity(q.Get("granularity"))
		span.SetAttributes(attribute.String("granularity", string(granularity)))

		resp, err := svc.RateSeries(ctx, start, end, granularity)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func currentRateHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/default-rate/current")
		defer span.End()

		snapshot, err := svc.CurrentRate(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

func emailReportHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/default-rate/email")
		defer span.End()

		if err := svc.EmailCurrentRate(ctx); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
	}
}

// ============================================================
// Operations — GET /v1/operations/volume?type=daily|monthly
// ============================================================

func volumeHandler(svc *service.OperationsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/operations/volume")
		defer span.End()

		q := r.URL.Query()
		start, err := service.ParseRangeDate("start_date", q.Get("start_date"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		end, err := service.ParseRangeDate("end_date", q.Get("end_date"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		volumeType := q.Get("type")
		span.SetAttributes(attribute.String("type", volumeType))

		var resp *domain.VolumeResponse
		switch volumeType {
		case "daily":
			resp, err = svc.DailyVolume(ctx, start, end)
		case "", "monthly":
			resp, err = svc.MonthlyVolume(ctx, start, end)
		default:
			writeError(w, http.StatusBadRequest, "type must be daily or monthly")
			return
		}
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// Comercial — GET /v1/comercial/churn
// ============================================================

func churnHandler(svc *service.ComercialService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/comercial/churn")
		defer span.End()

		clients, err := svc.ChurnAnalysis(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": clients})
	}
}

// ============================================================
// Metrics — GET /v1/metrics/engine
// ============================================================

func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}
