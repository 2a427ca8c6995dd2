// Package duckdb opens local and MotherDuck-backed DuckDB handles and
// executes SQL against them.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/duckflow/duckflow/internal/config"
	"github.com/duckflow/duckflow/internal/engine"
	"github.com/duckflow/duckflow/internal/observability"
)

const tokenEnvVar = "MOTHERDUCK_TOKEN"

// DB is a handle to one engine session. Mode is fixed at open time.
type DB struct {
	db   *sql.DB
	mode engine.Mode
}

var _ engine.Executor = (*DB)(nil)

// Open returns a handle to the local in-process engine. An empty path
// opens an in-memory database.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &DB{db: db, mode: engine.ModeLocal}, nil
}

// OpenMotherDuck returns a handle to the managed cloud service. The
// access token is read from the environment through lookup, never taken
// as an argument, so it cannot end up hardcoded at a call site. The
// named database is created if needed and made current.
func OpenMotherDuck(ctx context.Context, database string, lookup config.LookupFunc) (*DB, error) {
	if strings.TrimSpace(database) == "" {
		return nil, fmt.Errorf("motherduck database name is required")
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	token, ok := lookup(tokenEnvVar)
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return nil, fmt.Errorf("connect to motherduck: %w", engine.ErrMissingToken)
	}

	db, err := sql.Open("duckdb", "md:?motherduck_token="+token)
	if err != nil {
		return nil, fmt.Errorf("open motherduck: %w", err)
	}

	handle := &DB{db: db, mode: engine.ModeMotherDuck}
	if err := handle.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", quoteIdent(database))); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create motherduck database %q: %w", database, err)
	}
	if err := handle.Exec(ctx, fmt.Sprintf("USE %s", quoteIdent(database))); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("use motherduck database %q: %w", database, err)
	}
	return handle, nil
}

func (d *DB) Mode() engine.Mode {
	return d.mode
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Query runs one SQL statement and materializes the full result set.
// Engine errors are wrapped but otherwise propagated unchanged.
func (d *DB) Query(ctx context.Context, sqlText string) (engine.Result, error) {
	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return engine.Result{}, fmt.Errorf("sql is required")
	}

	start := time.Now()
	rows, err := d.db.QueryContext(ctx, sqlText)
	if err != nil {
		observability.ObserveQuery(string(d.mode), err, 0)
		return engine.Result{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return engine.Result{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return engine.Result{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return engine.Result{}, fmt.Errorf("iterate rows: %w", err)
	}

	elapsed := time.Since(start)
	observability.ObserveQuery(string(d.mode), nil, elapsed)
	return engine.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: elapsed,
	}, nil
}

// Exec runs one SQL statement and discards any result.
func (d *DB) Exec(ctx context.Context, sqlText string) error {
	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return fmt.Errorf("sql is required")
	}

	start := time.Now()
	_, err := d.db.ExecContext(ctx, sqlText)
	observability.ObserveQuery(string(d.mode), err, time.Since(start))
	if err != nil {
		return fmt.Errorf("execute statement: %w", err)
	}
	return nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
