package experiment

import (
	"path/filepath"
	"testing"

	"github.com/sonomed/sonoclass/training"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "experiments.sqlite3"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndGetRun(t *testing.T) {
	store := openTestStore(t)
	config := training.DefaultConfig()

	id, err := store.CreateRun(config)
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	if id == "" {
		t.Fatal("empty run id")
	}

	run, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("failed to load run: %v", err)
	}
	if run.Seed != config.Seed || run.Folds != config.Folds || run.Epochs != config.Epochs {
		t.Errorf("run fields do not match config: %+v", run)
	}
	if run.CreatedAt.IsZero() {
		t.Error("created_at not recorded")
	}

	if _, err := store.GetRun("no-such-run"); err == nil {
		t.Error("expected error for unknown run id")
	}
}

func TestRunIDsAreUnique(t *testing.T) {
	store := openTestStore(t)
	config := training.DefaultConfig()

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		id, err := store.CreateRun(config)
		if err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate run id %s", id)
		}
		seen[id] = true
	}
}

func TestRecordAndReadFoldMetrics(t *testing.T) {
	store := openTestStore(t)

	id, err := store.CreateRun(training.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}

	result := &training.Result{
		Folds: []training.FoldResult{
			{Fold: 0, Metrics: training.Metrics{Accuracy: 0.9, Precision: 0.8, Recall: 0.7, F1: 0.75}},
			{Fold: 1, Metrics: training.Metrics{Accuracy: 0.85, Precision: 0.75, Recall: 0.8, F1: 0.77}},
		},
	}
	result.Summary = training.AverageMetrics([]training.Metrics{
		result.Folds[0].Metrics, result.Folds[1].Metrics,
	})

	if err := store.RecordResult(id, result); err != nil {
		t.Fatalf("failed to record result: %v", err)
	}

	folds, err := store.FoldMetrics(id)
	if err != nil {
		t.Fatalf("failed to read fold metrics: %v", err)
	}
	if len(folds) != 2 {
		t.Fatalf("expected 2 fold rows, got %d", len(folds))
	}
	for i, fm := range folds {
		if fm.Fold != i {
			t.Errorf("row %d carries fold %d", i, fm.Fold)
		}
		if fm.Metrics != result.Folds[i].Metrics {
			t.Errorf("fold %d: stored %+v, want %+v", i, fm.Metrics, result.Folds[i].Metrics)
		}
	}

	summary, err := store.Summary(id)
	if err != nil {
		t.Fatalf("failed to read summary: %v", err)
	}
	if summary != result.Summary {
		t.Errorf("stored summary %+v, want %+v", summary, result.Summary)
	}
}

func TestSummaryMissing(t *testing.T) {
	store := openTestStore(t)

	id, err := store.CreateRun(training.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	if _, err := store.Summary(id); err == nil {
		t.Error("expected error for run without summary")
	}
}

func TestRecordFoldRejectsNegativeFold(t *testing.T) {
	store := openTestStore(t)

	id, err := store.CreateRun(training.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create run: %v", err)
	}
	if err := store.RecordFold(id, -1, training.Metrics{}); err == nil {
		t.Error("expected error for negative fold number")
	}
}

func TestListRuns(t *testing.T) {
	store := openTestStore(t)
	config := training.DefaultConfig()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := store.CreateRun(config)
		if err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		ids = append(ids, id)
	}

	runs, err := store.ListRuns()
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}

	listed := make(map[string]bool)
	for _, run := range runs {
		listed[run.ID] = true
	}
	for _, id := range ids {
		if !listed[id] {
			t.Errorf("run %s missing from listing", id)
		}
	}
}
