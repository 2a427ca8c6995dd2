// Package loader registers external files and in-memory row sets as
// queryable relations on an open engine handle.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/duckflow/duckflow/internal/engine"
	"github.com/duckflow/duckflow/internal/observability"
)

// LoadCSV creates a table from a CSV file using the engine's own
// reader. Schema inference is delegated entirely to the engine.
func LoadCSV(ctx context.Context, db engine.Executor, csvPath, table string) error {
	if err := checkSource(csvPath); err != nil {
		return err
	}
	if table == "" {
		return fmt.Errorf("table name is required")
	}

	stmt := fmt.Sprintf(
		"CREATE TABLE %s AS SELECT * FROM read_csv_auto(%s)",
		quoteIdent(table),
		quoteString(csvPath),
	)
	if err := db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("load csv %q into %q: %w", csvPath, table, err)
	}
	observability.ObserveRelationRegistered("csv")
	return nil
}

// RegisterParquet exposes a Parquet file as a view without copying it.
func RegisterParquet(ctx context.Context, db engine.Executor, parquetPath, table string) error {
	if err := checkSource(parquetPath); err != nil {
		return err
	}
	if table == "" {
		return fmt.Errorf("table name is required")
	}

	stmt := fmt.Sprintf(
		"CREATE OR REPLACE VIEW %s AS SELECT * FROM read_parquet(%s)",
		quoteIdent(table),
		quoteString(parquetPath),
	)
	if err := db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("register parquet %q as %q: %w", parquetPath, table, err)
	}
	observability.ObserveRelationRegistered("parquet")
	return nil
}

// RegisterRows materializes an in-memory row set as a table. Rows are
// encoded to a temporary Parquet file and handed to the engine's
// reader, so column names and types come from the struct's parquet
// tags. The temporary file is removed once the table exists.
func RegisterRows[T any](ctx context.Context, db engine.Executor, table string, rows []T) error {
	if table == "" {
		return fmt.Errorf("table name is required")
	}
	if len(rows) == 0 {
		return fmt.Errorf("at least one row is required")
	}

	workDir, err := os.MkdirTemp("", "duckflow-register-")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	localPath := filepath.Join(workDir, "rows.parquet")
	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create temp parquet file: %w", err)
	}
	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = file.Close()
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close temp parquet file: %w", err)
	}

	stmt := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_parquet(%s)",
		quoteIdent(table),
		quoteString(localPath),
	)
	if err := db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("register rows as %q: %w", table, err)
	}
	observability.ObserveRelationRegistered("rows")
	return nil
}

// RowCount returns the number of rows in a registered relation.
func RowCount(ctx context.Context, db engine.Executor, table string) (int64, error) {
	result, err := db.Query(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table)))
	if err != nil {
		return 0, fmt.Errorf("count rows in %q: %w", table, err)
	}
	if result.RowCount() != 1 || len(result.Rows[0]) != 1 {
		return 0, fmt.Errorf("unexpected count result shape for %q", table)
	}
	count, ok := result.Rows[0][0].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T for %q", result.Rows[0][0], table)
	}
	return count, nil
}

func checkSource(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("source path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("source %q: %w", path, err)
	}
	return nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
