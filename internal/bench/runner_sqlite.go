package bench

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/duckflow/duckflow/internal/demo"
)

type sqliteRunner struct {
	db *sql.DB
}

func newSQLiteRunner() (Runner, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// The in-memory database lives on a single connection.
	db.SetMaxOpenConns(1)
	return &sqliteRunner{db: db}, nil
}

func (r *sqliteRunner) Name() string {
	return "sqlite"
}

func (r *sqliteRunner) Setup(ctx context.Context, rows []demo.Sale) error {
	createSQL := `CREATE TABLE sales (
		transaction_id INTEGER,
		sale_date TEXT,
		category TEXT,
		product TEXT,
		quantity INTEGER,
		price REAL
	)`
	if _, err := r.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("create sales table: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO sales VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.TransactionID, row.SaleDate, row.Category, row.Product, row.Quantity, row.Price); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("insert sale %d: %w", row.TransactionID, err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("close insert statement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}

func (r *sqliteRunner) RunQuery(ctx context.Context, sqlText string) (int64, error) {
	rows, err := r.db.QueryContext(ctx, sqlText)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return 0, err
	}

	var rowCount int64
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return 0, err
		}
		rowCount++
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return rowCount, nil
}

func (r *sqliteRunner) Close() error {
	return r.db.Close()
}
