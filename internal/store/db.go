// Package store persists projects, activity, runs and every artifact kind over
// database/sql. SQLite (modernc) is the default dialect; PostgreSQL is served
// through the pgx stdlib driver.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ganot/forgeline/internal/config"
	"github.com/ganot/forgeline/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects SQL flavour differences.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// DB wraps a database connection and its dialect
type DB struct {
	*sql.DB
	dialect Dialect
}

// Open connects using the configured driver.
func Open(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*DB, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DSN, NewSlowQueryTracer(logger, cfg.SlowQuery))
	case "sqlite", "":
		return New(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: in-memory databases are per-connection and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{DB: db, dialect: DialectSQLite}, nil
}

// NewPostgres opens a PostgreSQL connection through pgx. tracer may be nil.
func NewPostgres(ctx context.Context, dsn string, tracer pgx.QueryTracer) (*DB, error) {
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}
	if tracer != nil {
		connCfg.Tracer = tracer
	}

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, dialect: DialectPostgres}, nil
}

// Dialect reports the SQL flavour of the connection.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// RunMigrations applies the schema. It is idempotent.
func (db *DB) RunMigrations() error {
	schema := sqliteSchema
	if db.dialect == DialectPostgres {
		schema = postgresSchema
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// rebind rewrites ? placeholders into $n for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, op, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery(op, time.Since(start)) }()
	return db.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, op, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery(op, time.Since(start)) }()
	return db.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, op, query string, args ...any) *sql.Row {
	start := time.Now()
	defer func() { metrics.RecordDBQuery(op, time.Since(start)) }()
	return db.QueryRowContext(ctx, db.rebind(query), args...)
}

type scanner interface {
	Scan(dest ...any) error
}

func (db *DB) paging(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	if offset > 0 {
		if limit <= 0 {
			// SQLite requires LIMIT before OFFSET.
			if db.dialect == DialectPostgres {
				query += " LIMIT ALL"
			} else {
				query += " LIMIT -1"
			}
		}
		query += " OFFSET ?"
		args = append(args, offset)
	}
	return query, args
}

func inClause(n int) string {
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	return "(" + strings.Join(placeholders, ",") + ")"
}
