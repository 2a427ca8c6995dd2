// Package bench times one logical query across engines. Each engine is
// seeded with the identical generated row set, then the query is timed
// as a single run with no warm-up or repetition.
package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/duckflow/duckflow/internal/demo"
	"github.com/duckflow/duckflow/internal/observability"
)

type Runner interface {
	Name() string
	Setup(ctx context.Context, rows []demo.Sale) error
	RunQuery(ctx context.Context, sqlText string) (int64, error)
	Close() error
}

var factories = map[string]func() (Runner, error){
	"duckdb": newDuckDBRunner,
	"sqlite": newSQLiteRunner,
}

// Engines lists the available engine identifiers.
func Engines() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Options struct {
	Seed     int64
	SeedRows int
	Logger   *slog.Logger
}

// Run seeds every named engine with the same rows and times the query
// once per engine. Unknown identifiers fail before anything executes.
func Run(ctx context.Context, query string, engines []string, opts Options) (map[string]time.Duration, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}
	if len(engines) == 0 {
		return nil, fmt.Errorf("at least one engine is required")
	}
	for _, name := range engines {
		if _, ok := factories[name]; !ok {
			return nil, fmt.Errorf("unknown engine %q (available: %s)", name, strings.Join(Engines(), ", "))
		}
	}

	seedRows := opts.SeedRows
	if seedRows <= 0 {
		seedRows = 10000
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	rows := demo.NewGenerator(opts.Seed).Sales(seedRows)

	results := make(map[string]time.Duration, len(engines))
	for _, name := range engines {
		elapsed, rowCount, err := runOne(ctx, name, query, rows)
		if err != nil {
			return nil, fmt.Errorf("engine %q: %w", name, err)
		}
		results[name] = elapsed
		observability.SetBenchmarkRun(name, elapsed)
		logger.Info("benchmark run complete",
			slog.String("engine", name),
			slog.Duration("elapsed", elapsed),
			slog.Int64("result_rows", rowCount),
		)
	}
	return results, nil
}

func runOne(ctx context.Context, name, query string, rows []demo.Sale) (time.Duration, int64, error) {
	runner, err := factories[name]()
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = runner.Close() }()

	if err := runner.Setup(ctx, rows); err != nil {
		return 0, 0, fmt.Errorf("seed: %w", err)
	}

	start := time.Now()
	rowCount, err := runner.RunQuery(ctx, query)
	if err != nil {
		return 0, 0, fmt.Errorf("run query: %w", err)
	}
	return time.Since(start), rowCount, nil
}
