package duckdb

import (
	"context"
	"fmt"

	"github.com/duckflow/duckflow/internal/engine"
)

// SyncTable replicates a local relation into the cloud database by
// rewriting the target table from the source. The handle must be in
// MotherDuck mode.
func (d *DB) SyncTable(ctx context.Context, localTable, cloudTable string) error {
	if d.mode != engine.ModeMotherDuck {
		return fmt.Errorf("sync table: handle is not connected to motherduck")
	}
	if localTable == "" || cloudTable == "" {
		return fmt.Errorf("sync table: source and target names are required")
	}

	stmt := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM %s",
		quoteIdent(cloudTable),
		quoteIdent(localTable),
	)
	if err := d.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("sync table %q to %q: %w", localTable, cloudTable, err)
	}
	return nil
}
