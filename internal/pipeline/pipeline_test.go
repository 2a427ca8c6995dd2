package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	duckdbengine "github.com/duckflow/duckflow/internal/engine/duckdb"
	"github.com/duckflow/duckflow/internal/loader"
	"github.com/duckflow/duckflow/internal/storage"
)

const sampleCSV = `transaction_id,category,quantity,price
1,Electronics,1,1200.00
2,Furniture,2,350.00
3,Electronics,3,800.00
4,Appliances,4,89.99
5,Furniture,6,120.00
`

func TestRunZeroStepsCopiesInputToOutput(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeSampleCSV(t, dir)
	outputPath := filepath.Join(dir, "out.parquet")

	runner := &Runner{DB: openTestDB(t)}
	err := runner.Run(context.Background(), Config{
		Input:  inputPath,
		Output: outputPath,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := parquetRowCount(t, outputPath); got != 5 {
		t.Fatalf("output rows = %d, want 5", got)
	}
}

func TestRunAppliesStepsInOrder(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeSampleCSV(t, dir)
	outputPath := filepath.Join(dir, "summary.parquet")

	runner := &Runner{DB: openTestDB(t)}
	err := runner.Run(context.Background(), Config{
		Input:  inputPath,
		Output: outputPath,
		Steps: []string{
			"SELECT category, quantity, price FROM stage WHERE category <> 'Appliances'",
			"SELECT category, SUM(price * quantity) AS revenue FROM stage GROUP BY category",
		},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := parquetRowCount(t, outputPath); got != 2 {
		t.Fatalf("output rows = %d, want 2 categories", got)
	}
}

func TestRunUndefinedRelationAbortsWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeSampleCSV(t, dir)
	outputPath := filepath.Join(dir, "never.parquet")

	runner := &Runner{DB: openTestDB(t)}
	err := runner.Run(context.Background(), Config{
		Input:  inputPath,
		Output: outputPath,
		Steps:  []string{"SELECT * FROM undefined_relation"},
	})
	if err == nil {
		t.Fatal("Run() expected error for undefined relation")
	}
	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Fatalf("output file should not exist, stat error = %v", statErr)
	}
}

func TestRunFailingStepKeepsCurrentRelation(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeSampleCSV(t, dir)
	db := openTestDB(t)

	runner := &Runner{DB: db}
	err := runner.Run(context.Background(), Config{
		Input:  inputPath,
		Output: filepath.Join(dir, "never.parquet"),
		Steps:  []string{"SELECT * FROM undefined_relation"},
	})
	if err == nil {
		t.Fatal("Run() expected error")
	}

	count, err := loader.RowCount(context.Background(), db, "stage")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	if count != 5 {
		t.Fatalf("stage rows = %d, want untouched 5", count)
	}
}

func TestRunMissingInputFails(t *testing.T) {
	runner := &Runner{DB: openTestDB(t)}
	err := runner.Run(context.Background(), Config{
		Input:  filepath.Join(t.TempDir(), "missing.csv"),
		Output: filepath.Join(t.TempDir(), "out.parquet"),
	})
	if err == nil {
		t.Fatal("Run() expected error for missing input")
	}
}

func TestRunPublishesOutputWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeSampleCSV(t, dir)
	outputPath := filepath.Join(dir, "out.parquet")

	publisher := &recordingPublisher{}
	runner := &Runner{DB: openTestDB(t), Publisher: publisher}
	err := runner.Run(context.Background(), Config{
		Input:      inputPath,
		Output:     outputPath,
		PublishKey: "daily/out.parquet",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("published = %d calls, want 1", len(publisher.published))
	}
	if publisher.published[0] != "daily/out.parquet" {
		t.Fatalf("published key = %q", publisher.published[0])
	}
}

func TestRunDerivesPublishKeyWhenUnset(t *testing.T) {
	dir := t.TempDir()
	inputPath := writeSampleCSV(t, dir)

	publisher := &recordingPublisher{}
	runner := &Runner{DB: openTestDB(t), Publisher: publisher}
	err := runner.Run(context.Background(), Config{
		Input:  inputPath,
		Output: filepath.Join(dir, "out.parquet"),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("published = %d calls, want 1", len(publisher.published))
	}
	key := publisher.published[0]
	if !strings.HasPrefix(key, "stage/date=") || !strings.HasSuffix(key, "/out.parquet") {
		t.Fatalf("derived key = %q", key)
	}
}

func writeSampleCSV(t *testing.T, dir string) string {
	t.Helper()
	inputPath := filepath.Join(dir, "sales.csv")
	if err := os.WriteFile(inputPath, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("os.WriteFile() error = %v", err)
	}
	return inputPath
}

func openTestDB(t *testing.T) *duckdbengine.DB {
	t.Helper()
	db, err := duckdbengine.Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func parquetRowCount(t *testing.T, parquetPath string) int64 {
	t.Helper()
	db := openTestDB(t)
	if err := loader.RegisterParquet(context.Background(), db, parquetPath, "output"); err != nil {
		t.Fatalf("RegisterParquet() error = %v", err)
	}
	count, err := loader.RowCount(context.Background(), db, "output")
	if err != nil {
		t.Fatalf("RowCount() error = %v", err)
	}
	return count
}

type recordingPublisher struct {
	published []string
}

func (p *recordingPublisher) PublishFile(_ context.Context, _, key string) (storage.ObjectInfo, error) {
	p.published = append(p.published, key)
	return storage.ObjectInfo{Key: key}, nil
}

func (p *recordingPublisher) Stat(context.Context, string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, storage.ErrObjectNotFound
}

func (p *recordingPublisher) Delete(context.Context, string) error {
	return nil
}
