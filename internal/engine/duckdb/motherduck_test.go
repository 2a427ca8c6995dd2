package duckdb

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/duckflow/duckflow/internal/engine"
)

func TestOpenMotherDuckMissingTokenIsConfigError(t *testing.T) {
	lookup := func(string) (string, bool) { return "", false }
	_, err := OpenMotherDuck(context.Background(), "demo_db", lookup)
	if !errors.Is(err, engine.ErrMissingToken) {
		t.Fatalf("OpenMotherDuck() error = %v, want ErrMissingToken", err)
	}
}

func TestOpenMotherDuckEmptyTokenIsConfigError(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == "MOTHERDUCK_TOKEN" {
			return "   ", true
		}
		return "", false
	}
	_, err := OpenMotherDuck(context.Background(), "demo_db", lookup)
	if !errors.Is(err, engine.ErrMissingToken) {
		t.Fatalf("OpenMotherDuck() error = %v, want ErrMissingToken", err)
	}
}

func TestOpenMotherDuckRequiresDatabaseName(t *testing.T) {
	lookup := func(string) (string, bool) { return "token", true }
	if _, err := OpenMotherDuck(context.Background(), "  ", lookup); err == nil {
		t.Fatal("OpenMotherDuck() expected error for empty database name")
	}
}

func TestSyncTableRejectsLocalHandle(t *testing.T) {
	db, err := Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.SyncTable(context.Background(), "sales", "sales_data"); err == nil {
		t.Fatal("SyncTable() expected error on local handle")
	}
}

func TestSyncTableIssuesReplaceStatement(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = mockDB.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE OR REPLACE TABLE "sales_data" AS SELECT * FROM "sales"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	db := &DB{db: mockDB, mode: engine.ModeMotherDuck}
	if err := db.SyncTable(context.Background(), "sales", "sales_data"); err != nil {
		t.Fatalf("SyncTable() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSyncTableRequiresNames(t *testing.T) {
	db := &DB{mode: engine.ModeMotherDuck}
	if err := db.SyncTable(context.Background(), "", "sales_data"); err == nil {
		t.Fatal("SyncTable() expected error for empty source name")
	}
}
