package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/dmenezes/fomento-report-api/internal/domain"
	"github.com/dmenezes/fomento-report-api/internal/infra/observability"
	"github.com/dmenezes/fomento-report-api/internal/infra/resilience"
)

// Store implements the DocumentSource and OperationsSource ports.
// Every query runs under the resilience guard: bulkhead, circuit breaker
// and retry with backoff.
type Store struct {
	db      *sql.DB
	guard   *resilience.Guard
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewStore creates a Store around an open database handle.
func NewStore(db *sql.DB, guard *resilience.Guard, logger *zap.Logger, metrics *observability.Metrics) *Store {
	return &Store{db: db, guard: guard, logger: logger, metrics: metrics}
}

// Ping reports whether the database is reachable. Used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const listDocumentsInRangeQuery = `
	SELECT d.id, d.valor_face, d.data_emissao, d.data_vencimento, d.data_baixa, d.is_deleted
	FROM documento d
	INNER JOIN operacao o ON d.operacao_id = o.id
	WHERE d.is_deleted = FALSE
	  AND o.is_deleted = FALSE
	  AND d.data_emissao <= $2
	  AND (d.data_baixa IS NULL OR d.data_baixa >= $1)`

// ListDocumentsInRange returns the superset of documents that can appear in
// the portfolio at any day of [start, end]. Day-level activity and overdue
// classification happen in the engine, not in SQL.
func (s *Store) ListDocumentsInRange(ctx context.Context, start, end time.Time) ([]domain.Document, error) {
	return s.queryDocuments(ctx, listDocumentsInRangeQuery, start, end)
}

const listOpenDocumentsQuery = `
	SELECT d.id, d.valor_face, d.data_emissao, d.data_vencimento, d.data_baixa, d.is_deleted
	FROM documento d
	WHERE d.is_deleted = FALSE
	  AND d.status = $1
	  AND d.data_vencimento IS NOT NULL`

// ListOpenDocuments returns open documents that carry a due date.
func (s *Store) ListOpenDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.queryDocuments(ctx, listOpenDocumentsQuery, domain.DocumentStatusOpen)
}

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]domain.Document, error) {
	var docs []domain.Document
	err := s.guard.Do(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		docs = docs[:0]
		for rows.Next() {
			var (
				d          domain.Document
				due, baixa sql.NullTime
			)
			if err := rows.Scan(&d.ID, &d.FaceValue, &d.IssueDate, &due, &baixa, &d.Deleted); err != nil {
				return err
			}
			if due.Valid {
				t := due.Time
				d.DueDate = &t
			}
			if baixa.Valid {
				t := baixa.Time
				d.SettlementDate = &t
			}
			docs = append(docs, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.wrapQueryError("documents", err)
	}
	return docs, nil
}

const monthlyVolumeQuery = `
	SELECT to_char(o.data, 'YYYY-MM') AS period,
	       SUM(o.valor_compra) AS total_volume,
	       AVG(o.valor_compra) AS average_ticket
	FROM operacao o
	WHERE o.is_deleted = FALSE
	  AND o.data >= $1 AND o.data <= $2
	GROUP BY to_char(o.data, 'YYYY-MM')
	ORDER BY period ASC`

// MonthlyVolume aggregates operation volume per calendar month.
func (s *Store) MonthlyVolume(ctx context.Context, start, end time.Time) ([]domain.VolumePoint, error) {
	return s.queryVolume(ctx, monthlyVolumeQuery, start, end)
}

const dailyVolumeQuery = `
	SELECT to_char(o.data::date, 'YYYY-MM-DD') AS period,
	       SUM(o.valor_compra) AS total_volume,
	       AVG(o.valor_compra) AS average_ticket
	FROM operacao o
	WHERE o.is_deleted = FALSE
	  AND o.data >= $1 AND o.data <= $2
	  AND EXTRACT(ISODOW FROM o.data) < 6
	GROUP BY o.data::date
	ORDER BY period ASC`

// DailyVolume aggregates operation volume per business day.
// Weekend operations are excluded.
func (s *Store) DailyVolume(ctx context.Context, start, end time.Time) ([]domain.VolumePoint, error) {
	return s.queryVolume(ctx, dailyVolumeQuery, start, end)
}

func (s *Store) queryVolume(ctx context.Context, query string, start, end time.Time) ([]domain.VolumePoint, error) {
	var points []domain.VolumePoint
	err := s.guard.Do(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, start, end)
		if err != nil {
			return err
		}
		defer rows.Close()

		points = points[:0]
		for rows.Next() {
			var p domain.VolumePoint
			if err := rows.Scan(&p.Date, &p.TotalVolume, &p.AverageTicket); err != nil {
				return err
			}
			points = append(points, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.wrapQueryError("volume", err)
	}
	return points, nil
}

const churnCandidatesQuery = `
	WITH ultima_operacao AS (
		SELECT o.cliente_id, MAX(o.data) AS ultima_data
		FROM operacao o
		WHERE o.is_deleted = FALSE
		GROUP BY o.cliente_id
	),
	clientes_inativos AS (
		SELECT cb.razao AS cliente_nome,
		       uo.ultima_data,
		       (CURRENT_DATE - uo.ultima_data::date) AS dias_inativo,
		       (SELECT COALESCE(SUM(o2.valor_compra), 0)
		        FROM operacao o2
		        WHERE o2.cliente_id = c.id AND o2.is_deleted = FALSE) AS volume_historico
		FROM cliente c
		INNER JOIN ultima_operacao uo ON c.id = uo.cliente_id
		INNER JOIN cadastro_base cb ON c.cadastro_base_id = cb.id
		WHERE (CURRENT_DATE - uo.ultima_data::date) > $1
		  AND cb.is_deleted = FALSE
	)
	SELECT cliente_nome, ultima_data, dias_inativo, volume_historico
	FROM clientes_inativos
	ORDER BY volume_historico DESC
	LIMIT $2`

// ChurnCandidates returns the top clients by historical volume whose last
// operation is older than minIdleDays.
func (s *Store) ChurnCandidates(ctx context.Context, minIdleDays, limit int) ([]domain.ChurnRow, error) {
	var out []domain.ChurnRow
	err := s.guard.Do(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, churnCandidatesQuery, minIdleDays, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var r domain.ChurnRow
			if err := rows.Scan(&r.ClientName, &r.LastOperation, &r.DaysInactive, &r.HistoricalVolume); err != nil {
				return err
			}
			out = append(out, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, s.wrapQueryError("churn", err)
	}
	return out, nil
}

func (s *Store) wrapQueryError(query string, err error) error {
	if s.metrics != nil {
		s.metrics.IncrDataSourceError("postgres")
	}
	s.logger.Error("database query failed", zap.String("query", query), zap.Error(err))
	if s.guard.Open() {
		return &domain.ErrCircuitOpen{Service: "postgres"}
	}
	return &domain.ErrDataSource{Query: query, Err: err}
}
