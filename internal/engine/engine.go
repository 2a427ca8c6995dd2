// Package engine defines the connection-facing types shared by the
// DuckDB handle implementation and its callers.
package engine

import (
	"context"
	"errors"
	"time"
)

// ErrMissingToken is returned when a MotherDuck connection is requested
// but no token is present in the process environment.
var ErrMissingToken = errors.New("MOTHERDUCK_TOKEN is not set")

type Mode string

const (
	ModeLocal      Mode = "local"
	ModeMotherDuck Mode = "motherduck"
)

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

func (r Result) RowCount() int {
	return len(r.Rows)
}

type Executor interface {
	Query(ctx context.Context, sqlText string) (Result, error)
	Exec(ctx context.Context, sqlText string) error
}
