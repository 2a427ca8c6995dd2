package bench

import (
	"context"

	"github.com/duckflow/duckflow/internal/demo"
	duckdbengine "github.com/duckflow/duckflow/internal/engine/duckdb"
	"github.com/duckflow/duckflow/internal/loader"
)

type duckdbRunner struct {
	db *duckdbengine.DB
}

func newDuckDBRunner() (Runner, error) {
	db, err := duckdbengine.Open("")
	if err != nil {
		return nil, err
	}
	return &duckdbRunner{db: db}, nil
}

func (r *duckdbRunner) Name() string {
	return "duckdb"
}

func (r *duckdbRunner) Setup(ctx context.Context, rows []demo.Sale) error {
	return loader.RegisterRows(ctx, r.db, "sales", rows)
}

func (r *duckdbRunner) RunQuery(ctx context.Context, sqlText string) (int64, error) {
	result, err := r.db.Query(ctx, sqlText)
	if err != nil {
		return 0, err
	}
	return int64(result.RowCount()), nil
}

func (r *duckdbRunner) Close() error {
	return r.db.Close()
}
