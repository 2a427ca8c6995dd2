// Package duckflowctl implements the duckflow command line: running ad
// hoc queries, pipelines, benchmarks, and the sample sales demo.
package duckflowctl

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/duckflow/duckflow/internal/bench"
	"github.com/duckflow/duckflow/internal/config"
	"github.com/duckflow/duckflow/internal/demo"
	"github.com/duckflow/duckflow/internal/engine"
	duckdbengine "github.com/duckflow/duckflow/internal/engine/duckdb"
	"github.com/duckflow/duckflow/internal/loader"
	"github.com/duckflow/duckflow/internal/pipeline"
	"github.com/duckflow/duckflow/internal/storage"
)

const tokenEnvVar = "MOTHERDUCK_TOKEN"

type Options struct {
	DBPath             string
	MotherDuckDatabase string
	Lookup             config.LookupFunc
	Publisher          storage.Publisher
	Logger             *slog.Logger
	Stdout             io.Writer
	Stderr             io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	opts := withDefaults(defaults)

	if len(args) < 1 {
		writeUsage(opts.Stderr)
		return 2
	}

	command := strings.TrimSpace(args[0])
	switch command {
	case "demo":
		return runDemo(ctx, args[1:], opts)
	case "query":
		return runQuery(ctx, args[1:], opts)
	case "pipeline":
		return runPipeline(ctx, args[1:], opts)
	case "bench":
		return runBench(ctx, args[1:], opts)
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "unknown command %q\n\n", command)
		writeUsage(opts.Stderr)
		return 2
	}
}

func runQuery(ctx context.Context, args []string, opts Options) int {
	fs := flag.NewFlagSet("duckflow query", flag.ContinueOnError)
	fs.SetOutput(opts.Stderr)
	sqlText := fs.String("sql", "", "SQL statement to execute")
	csvPath := fs.String("csv", "", "optional CSV file to load before running the query")
	tableName := fs.String("table", "input", "relation name for the loaded CSV")
	motherduck := fs.Bool("motherduck", false, "connect to MotherDuck instead of a local database")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*sqlText) == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "-sql is required")
		return 2
	}

	db, err := openHandle(ctx, opts, *motherduck)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	if *csvPath != "" {
		if err := loader.LoadCSV(ctx, db, *csvPath, *tableName); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
			return 1
		}
	}

	result, err := db.Query(ctx, *sqlText)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
		return 1
	}
	renderResult(opts.Stdout, result)
	return 0
}

func runPipeline(ctx context.Context, args []string, opts Options) int {
	fs := flag.NewFlagSet("duckflow pipeline", flag.ContinueOnError)
	fs.SetOutput(opts.Stderr)
	input := fs.String("input", "", "input CSV path")
	output := fs.String("output", "", "output Parquet path")
	relation := fs.String("relation", "stage", "fixed intermediate relation name")
	publishKey := fs.String("publish-key", "", "object key for the published output (derived when empty)")
	var steps stringSliceFlag
	fs.Var(&steps, "step", "SQL transformation step (repeatable, applied in order)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	db, err := openHandle(ctx, opts, false)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	runner := &pipeline.Runner{DB: db, Publisher: opts.Publisher, Logger: opts.Logger}
	err = runner.Run(ctx, pipeline.Config{
		Input:      *input,
		Output:     *output,
		Relation:   *relation,
		Steps:      steps,
		PublishKey: *publishKey,
	})
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintf(opts.Stdout, "pipeline complete: %s\n", *output)
	return 0
}

func runBench(ctx context.Context, args []string, opts Options) int {
	fs := flag.NewFlagSet("duckflow bench", flag.ContinueOnError)
	fs.SetOutput(opts.Stderr)
	query := fs.String("query", "", "SQL query to time on each engine")
	engines := fs.String("engines", strings.Join(bench.Engines(), ","), "comma-separated engine identifiers")
	rows := fs.Int("rows", 10000, "number of generated rows to seed each engine with")
	seed := fs.Int64("seed", 42, "seed for the generated row set")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	names := splitList(*engines)
	results, err := bench.Run(ctx, *query, names, bench.Options{
		Seed:     *seed,
		SeedRows: *rows,
		Logger:   opts.Logger,
	})
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
		return 1
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(opts.Stdout)
	tbl.AppendHeader(table.Row{"engine", "elapsed"})
	for _, name := range sortedKeys(results) {
		tbl.AppendRow(table.Row{name, results[name].String()})
	}
	tbl.Render()
	return 0
}

// runDemo mirrors the sample workflow: load sales data, print the
// category summary, and sync the table to MotherDuck when a token is
// present in the environment.
func runDemo(ctx context.Context, args []string, opts Options) int {
	fs := flag.NewFlagSet("duckflow demo", flag.ContinueOnError)
	fs.SetOutput(opts.Stderr)
	input := fs.String("input", "", "sales CSV path (generated when empty)")
	rows := fs.Int("rows", 100, "number of generated sales when no input is given")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	csvPath := *input
	if csvPath == "" {
		workDir, err := os.MkdirTemp("", "duckflow-demo-")
		if err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
			return 1
		}
		defer func() { _ = os.RemoveAll(workDir) }()

		csvPath = filepath.Join(workDir, "sample_sales.csv")
		if err := demo.WriteCSV(csvPath, demo.NewGenerator(42).Sales(*rows)); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
			return 1
		}
	}

	useMotherDuck := hasToken(opts.Lookup)
	db, err := openHandle(ctx, opts, useMotherDuck)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	if err := loader.LoadCSV(ctx, db, csvPath, "sales"); err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
		return 1
	}

	result, err := db.Query(ctx, `
		SELECT
			category,
			COUNT(*) AS total_transactions,
			SUM(quantity) AS total_items_sold,
			SUM(price * quantity) AS total_revenue
		FROM sales
		GROUP BY category
		ORDER BY total_revenue DESC
	`)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
		return 1
	}

	_, _ = fmt.Fprintln(opts.Stdout, "Sales Summary by Category:")
	renderResult(opts.Stdout, result)

	if useMotherDuck {
		if err := db.SyncTable(ctx, "sales", "sales_data"); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "error: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(opts.Stdout, "synced sales to motherduck table sales_data")
	}
	return 0
}

func openHandle(ctx context.Context, opts Options, motherduck bool) (*duckdbengine.DB, error) {
	if motherduck {
		return duckdbengine.OpenMotherDuck(ctx, opts.MotherDuckDatabase, opts.Lookup)
	}
	return duckdbengine.Open(opts.DBPath)
}

func hasToken(lookup config.LookupFunc) bool {
	value, ok := lookup(tokenEnvVar)
	return ok && strings.TrimSpace(value) != ""
}

func renderResult(w io.Writer, result engine.Result) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	header := make(table.Row, len(result.Columns))
	for i, column := range result.Columns {
		header[i] = column
	}
	tbl.AppendHeader(header)
	for _, row := range result.Rows {
		cells := make(table.Row, len(row))
		copy(cells, row)
		tbl.AppendRow(cells)
	}
	tbl.Render()
}

func withDefaults(opts Options) Options {
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	if opts.Stderr == nil {
		opts.Stderr = io.Discard
	}
	if opts.Lookup == nil {
		opts.Lookup = os.LookupEnv
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.MotherDuckDatabase == "" {
		opts.MotherDuckDatabase = "demo_db"
	}
	return opts
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	return names
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: duckflow <command> [flags]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  demo       load sample sales data and print the category summary")
	_, _ = fmt.Fprintln(w, "  query      run a SQL statement, optionally loading a CSV first")
	_, _ = fmt.Fprintln(w, "  pipeline   run ordered SQL steps over a CSV and write Parquet")
	_, _ = fmt.Fprintln(w, "  bench      time one query across engines")
}
