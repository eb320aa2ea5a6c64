package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/ganot/forgeline/internal/metrics"
	"github.com/jackc/pgx/v5"
)

type traceKey struct{}

type traceStart struct {
	at  time.Time
	sql string
}

// SlowQueryTracer logs PostgreSQL queries slower than a threshold.
type SlowQueryTracer struct {
	logger        *slog.Logger
	slowThreshold time.Duration
}

// NewSlowQueryTracer creates a tracer; a zero threshold defaults to 100ms.
func NewSlowQueryTracer(logger *slog.Logger, slowThreshold time.Duration) *SlowQueryTracer {
	if slowThreshold == 0 {
		slowThreshold = 100 * time.Millisecond
	}
	return &SlowQueryTracer{logger: logger, slowThreshold: slowThreshold}
}

func (t *SlowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, traceKey{}, traceStart{at: time.Now(), sql: data.SQL})
}

func (t *SlowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(traceKey{}).(traceStart)
	if !ok {
		return
	}
	duration := time.Since(start.at)
	if duration <= t.slowThreshold {
		return
	}

	metrics.SlowQueries.Inc()
	if t.logger == nil {
		return
	}
	sql := start.sql
	if len(sql) > 200 {
		sql = sql[:200] + "..."
	}
	t.logger.Warn("slow query",
		"duration", duration,
		"sql", sql,
		"rows", data.CommandTag.RowsAffected(),
		"error", data.Err,
	)
}
