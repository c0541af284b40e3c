package domain

import "time"

// ============================================================
// Default-rate time series
// ============================================================

// RateSeriesPoint is one bucket of the default-rate series.
// Values for coarser granularities are sums of the daily snapshots
// inside the bucket; the two rates are always recomputed from those
// sums, never averaged from per-day percentages.
type RateSeriesPoint struct {
	PeriodLabel      string  `json:"period_label"`
	ActiveValue      float64 `json:"active_value"`
	ActiveCount      int     `json:"active_count"`
	OverdueValue     float64 `json:"overdue_value"`
	OverdueCount     int     `json:"overdue_count"`
	RateByCount      float64 `json:"rate_by_count"`
	RateByValue      float64 `json:"rate_by_value"`
	AverageDelayDays float64 `json:"average_delay_days"`
}

// RateSeriesResponse is the payload of GET /v1/default-rate/series.
type RateSeriesResponse struct {
	Data []RateSeriesPoint `json:"data"`
}

// CurrentRateSnapshot is the "as of now" default rate over the open
// portfolio. Field names match the legacy report consumers.
type CurrentRateSnapshot struct {
	OverdueDocuments        int     `json:"overdue_documents"`
	OpenDocuments           int     `json:"open_documents"`
	OverdueValue            float64 `json:"overdue_value"`
	OpenValue               float64 `json:"open_value"`
	DefaultRatePercent      float64 `json:"default_rate_percent"`
	DefaultRateValuePercent float64 `json:"default_rate_value_percent"`
}

// ============================================================
// Operation volume
// ============================================================

// VolumePoint is one bucket of the operation-volume series
// (daily or monthly).
type VolumePoint struct {
	Date          string  `json:"date"`
	TotalVolume   float64 `json:"total_volume"`
	AverageTicket float64 `json:"average_ticket"`
}

// VolumeResponse is the payload of GET /v1/operations/volume.
type VolumeResponse struct {
	Data []VolumePoint `json:"data"`
}

// ============================================================
// Churn analysis
// ============================================================

// ChurnRow is a raw inactivity row from the ledger: a client with no
// operation in the inactivity window, with its lifetime volume.
type ChurnRow struct {
	ClientName       string
	LastOperation    time.Time
	DaysInactive     int
	HistoricalVolume float64
}

// ChurnClient is a churn-risk entry as served to consumers.
// JSON keys are kept in Portuguese for compatibility with the
// existing dashboards.
type ChurnClient struct {
	Cliente         string  `json:"cliente"`
	UltimaOperacao  string  `json:"ultima_operacao"`
	DiasInativo     int     `json:"dias_inativo"`
	VolumeHistorico float64 `json:"volume_historico"`
	Risco           string  `json:"risco"`
}

// Churn risk labels.
const (
	ChurnRiskHigh   = "Alto"
	ChurnRiskMedium = "Médio"
	ChurnRiskLow    = "Baixo"
)

// ============================================================
// Engine metrics snapshot
// ============================================================

// EngineMetrics is the JSON view of the reporting counters, served by
// GET /v1/metrics/engine for dashboards that cannot scrape Prometheus.
type EngineMetrics struct {
	SeriesComputed   int64   `json:"series_computed"`
	DaysEvaluated    int64   `json:"days_evaluated"`
	DataSourceErrors int64   `json:"data_source_errors"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
}
