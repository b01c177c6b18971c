package experiment

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sonomed/sonoclass/training"
)

// Store records cross-validation runs in a SQLite database: one row per run
// with its hyperparameters, one row per fold with its metric tuple, and a
// summary row (fold -1) with the cross-fold average.
type Store struct {
	db *sql.DB
}

const summaryFold = -1

// Run is a recorded cross-validation run.
type Run struct {
	ID        string
	CreatedAt time.Time
	Seed      int64
	Folds     int
	Epochs    int
	BatchSize int
	BaseLR    float64
	MaxLR     float64
}

// FoldMetrics is one recorded metric row.
type FoldMetrics struct {
	Fold    int
	Metrics training.Metrics
}

// NewStore opens (creating if necessary) the experiment database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT,
			seed INTEGER,
			folds INTEGER,
			epochs INTEGER,
			batch_size INTEGER,
			base_lr REAL,
			max_lr REAL,
			weight_decay REAL,
			threshold REAL
		)`,
		`CREATE TABLE IF NOT EXISTS fold_metrics (
			run_id TEXT REFERENCES runs(id),
			-- fold -1 holds the cross-fold average
			fold INTEGER,
			accuracy REAL,
			precision REAL,
			recall REAL,
			f1 REAL,
			PRIMARY KEY (run_id, fold)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %v", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun records a new run with its hyperparameters and returns its id.
func (s *Store) CreateRun(config training.Config) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, created_at, seed, folds, epochs, batch_size, base_lr, max_lr, weight_decay, threshold)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), config.Seed, config.Folds,
		config.Epochs, config.BatchSize, config.BaseLR, config.MaxLR,
		config.WeightDecay, config.Threshold,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %v", err)
	}
	return id, nil
}

// RecordFold stores the metric tuple for one fold of a run.
func (s *Store) RecordFold(runID string, fold int, m training.Metrics) error {
	if fold < 0 {
		return fmt.Errorf("fold must be non-negative, got %d", fold)
	}
	return s.insertMetrics(runID, fold, m)
}

// RecordSummary stores the cross-fold average for a run.
func (s *Store) RecordSummary(runID string, m training.Metrics) error {
	return s.insertMetrics(runID, summaryFold, m)
}

func (s *Store) insertMetrics(runID string, fold int, m training.Metrics) error {
	_, err := s.db.Exec(
		`INSERT INTO fold_metrics (run_id, fold, accuracy, precision, recall, f1)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, fold, m.Accuracy, m.Precision, m.Recall, m.F1,
	)
	if err != nil {
		return fmt.Errorf("failed to record metrics for fold %d: %v", fold, err)
	}
	return nil
}

// RecordResult stores every fold of a finished run plus its summary.
func (s *Store) RecordResult(runID string, result *training.Result) error {
	for _, fr := range result.Folds {
		if err := s.RecordFold(runID, fr.Fold, fr.Metrics); err != nil {
			return err
		}
	}
	return s.RecordSummary(runID, result.Summary)
}

// GetRun loads one run by id.
func (s *Store) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, created_at, seed, folds, epochs, batch_size, base_lr, max_lr
		 FROM runs WHERE id = ?`, id)

	var run Run
	var createdAt string
	err := row.Scan(&run.ID, &createdAt, &run.Seed, &run.Folds, &run.Epochs,
		&run.BatchSize, &run.BaseLR, &run.MaxLR)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no run with id %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run: %v", err)
	}

	run.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("run %s has malformed timestamp: %v", id, err)
	}
	return &run, nil
}

// ListRuns returns all recorded runs, newest first.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, seed, folds, epochs, batch_size, base_lr, max_lr
		 FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %v", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var createdAt string
		if err := rows.Scan(&run.ID, &createdAt, &run.Seed, &run.Folds,
			&run.Epochs, &run.BatchSize, &run.BaseLR, &run.MaxLR); err != nil {
			return nil, err
		}
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FoldMetrics returns the per-fold rows of a run in fold order, without the
// summary row.
func (s *Store) FoldMetrics(runID string) ([]FoldMetrics, error) {
	rows, err := s.db.Query(
		`SELECT fold, accuracy, precision, recall, f1
		 FROM fold_metrics WHERE run_id = ? AND fold >= 0 ORDER BY fold`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fold metrics: %v", err)
	}
	defer rows.Close()

	var result []FoldMetrics
	for rows.Next() {
		var fm FoldMetrics
		if err := rows.Scan(&fm.Fold, &fm.Metrics.Accuracy, &fm.Metrics.Precision,
			&fm.Metrics.Recall, &fm.Metrics.F1); err != nil {
			return nil, err
		}
		result = append(result, fm)
	}
	return result, rows.Err()
}

// Summary returns the cross-fold average of a run, if recorded.
func (s *Store) Summary(runID string) (training.Metrics, error) {
	row := s.db.QueryRow(
		`SELECT accuracy, precision, recall, f1
		 FROM fold_metrics WHERE run_id = ? AND fold = ?`, runID, summaryFold)

	var m training.Metrics
	err := row.Scan(&m.Accuracy, &m.Precision, &m.Recall, &m.F1)
	if err == sql.ErrNoRows {
		return training.Metrics{}, fmt.Errorf("run %s has no summary", runID)
	}
	if err != nil {
		return training.Metrics{}, fmt.Errorf("failed to load summary: %v", err)
	}
	return m, nil
}
