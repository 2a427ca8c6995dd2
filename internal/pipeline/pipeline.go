// Package pipeline executes an ordered list of SQL transformations over
// a fixed intermediate relation and writes the final result to Parquet.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/duckflow/duckflow/internal/engine"
	"github.com/duckflow/duckflow/internal/loader"
	"github.com/duckflow/duckflow/internal/observability"
	"github.com/duckflow/duckflow/internal/storage"
)

const defaultRelation = "stage"

// Config is immutable once constructed and consumed linearly. Every
// step reads the relation named by Relation and its result becomes the
// new content of that relation.
type Config struct {
	Input      string
	Output     string
	Relation   string
	Steps      []string
	PublishKey string
}

type Runner struct {
	DB        engine.Executor
	Publisher storage.Publisher
	Logger    *slog.Logger
}

// Run loads the input, applies each step in order, and copies the final
// relation to the output path. Any failing step aborts the run; the
// output file is only written after the last step succeeded.
func (r *Runner) Run(ctx context.Context, cfg Config) error {
	if r.DB == nil {
		return fmt.Errorf("engine handle is required")
	}
	if strings.TrimSpace(cfg.Input) == "" {
		return fmt.Errorf("input path is required")
	}
	if strings.TrimSpace(cfg.Output) == "" {
		return fmt.Errorf("output path is required")
	}
	relation := cfg.Relation
	if relation == "" {
		relation = defaultRelation
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := loader.LoadCSV(ctx, r.DB, cfg.Input, relation); err != nil {
		observability.ObservePipelineFailure()
		return fmt.Errorf("load pipeline input: %w", err)
	}
	logger.Info("pipeline input loaded",
		slog.String("input", cfg.Input),
		slog.String("relation", relation),
	)

	for index, step := range cfg.Steps {
		if err := r.applyStep(ctx, relation, step); err != nil {
			observability.ObservePipelineFailure()
			return fmt.Errorf("pipeline step %d: %w", index+1, err)
		}
		observability.ObservePipelineStep()
		logger.Debug("pipeline step applied", slog.Int("step", index+1))
	}

	copySQL := fmt.Sprintf(
		"COPY (SELECT * FROM %s) TO %s (FORMAT PARQUET)",
		quoteIdent(relation),
		quoteString(cfg.Output),
	)
	if err := r.DB.Exec(ctx, copySQL); err != nil {
		observability.ObservePipelineFailure()
		return fmt.Errorf("write pipeline output: %w", err)
	}
	logger.Info("pipeline output written",
		slog.String("output", cfg.Output),
		slog.Int("steps", len(cfg.Steps)),
	)

	if r.Publisher != nil {
		key := cfg.PublishKey
		if key == "" {
			derived, err := storage.BuildOutputKey(relation, time.Now(), filepath.Base(cfg.Output))
			if err != nil {
				return fmt.Errorf("derive publish key: %w", err)
			}
			key = derived
		}
		info, err := r.Publisher.PublishFile(ctx, cfg.Output, key)
		if err != nil {
			return fmt.Errorf("publish pipeline output: %w", err)
		}
		logger.Info("pipeline output published",
			slog.String("key", info.Key),
			slog.Int64("size_bytes", info.Size),
		)
	}
	return nil
}

// applyStep materializes the step result under a scratch name first, so
// a failing step leaves the current relation untouched.
func (r *Runner) applyStep(ctx context.Context, relation, stepSQL string) error {
	stepSQL = strings.TrimSpace(stepSQL)
	for strings.HasSuffix(stepSQL, ";") {
		stepSQL = strings.TrimSpace(strings.TrimSuffix(stepSQL, ";"))
	}
	if stepSQL == "" {
		return fmt.Errorf("step sql is required")
	}

	scratch := relation + "__next"
	createSQL := fmt.Sprintf("CREATE TABLE %s AS (%s)", quoteIdent(scratch), stepSQL)
	if err := r.DB.Exec(ctx, createSQL); err != nil {
		return err
	}
	if err := r.DB.Exec(ctx, fmt.Sprintf("DROP TABLE %s", quoteIdent(relation))); err != nil {
		return err
	}
	if err := r.DB.Exec(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdent(scratch), quoteIdent(relation))); err != nil {
		return err
	}
	return nil
}

func quoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func quoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
