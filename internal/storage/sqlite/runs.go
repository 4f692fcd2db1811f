// Package sqlite persists batch run history so past runs can be inspected
// after the fact, locally or through the HTTP API.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/yegors/batchscribe/pkg/logger"
	_ "modernc.org/sqlite"
)

// RunRecord represents one batch run.
type RunRecord struct {
	ID                int64     `json:"id"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	InputDir          string    `json:"input_dir"`
	OutputDir         string    `json:"output_dir"`
	Backend           string    `json:"backend"`
	Model             string    `json:"model"`
	FilesTotal        int       `json:"files_total"`
	FilesFailed       int       `json:"files_failed"`
	TotalDurationSecs float64   `json:"total_duration_secs"`
}

// RunFileRecord represents the outcome for one file within a run.
type RunFileRecord struct {
	ID           int64   `json:"id"`
	RunID        int64   `json:"run_id"`
	Position     int     `json:"position"` // 1-based discovery index
	Name         string  `json:"name"`
	OutputBase   string  `json:"output_base"`
	DurationSecs float64 `json:"duration_secs"`
	Status       string  `json:"status"` // "ok" or "failed"
	Error        string  `json:"error,omitempty"`
}

// RunStorage is a SQLite-based store for batch run history
type RunStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewRunStorage opens (or creates) the run history database at dbPath.
func NewRunStorage(dbPath string, log *logger.Logger) (*RunStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage", logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	storage := &RunStorage{db: db, logger: storageLogger}
	if err := storage.initDB(); err != nil {
		db.Close()
		return nil, err
	}
	return storage, nil
}

func (s *RunStorage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			input_dir TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			backend TEXT NOT NULL,
			model TEXT NOT NULL,
			files_total INTEGER NOT NULL,
			files_failed INTEGER NOT NULL,
			total_duration_secs REAL NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS run_files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			output_base TEXT NOT NULL,
			duration_secs REAL NOT NULL,
			status TEXT NOT NULL,
			error TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create run_files table: %w", err)
	}

	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_run_files_run_id ON run_files(run_id)`); err != nil {
		return fmt.Errorf("failed to create run_id index: %w", err)
	}

	return nil
}

// StoreRun stores a completed run and returns its ID.
func (s *RunStorage) StoreRun(record *RunRecord) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs
		(started_at, finished_at, input_dir, output_dir, backend, model, files_total, files_failed, total_duration_secs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.StartedAt.Format(time.RFC3339),
		record.FinishedAt.Format(time.RFC3339),
		record.InputDir,
		record.OutputDir,
		record.Backend,
		record.Model,
		record.FilesTotal,
		record.FilesFailed,
		record.TotalDurationSecs,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// StoreRunFile stores a per-file outcome for a run.
func (s *RunStorage) StoreRunFile(record *RunFileRecord) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO run_files
		(run_id, position, name, output_base, duration_secs, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.RunID,
		record.Position,
		record.Name,
		record.OutputBase,
		record.DurationSecs,
		record.Status,
		record.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run file: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	return id, nil
}

// GetRuns returns runs, most recent first, with pagination.
func (s *RunStorage) GetRuns(limit, offset int) ([]*RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, input_dir, output_dir, backend, model, files_total, files_failed, total_duration_secs
		FROM runs
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// GetRun returns a single run by ID, or sql.ErrNoRows if absent.
func (s *RunStorage) GetRun(id int64) (*RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, started_at, finished_at, input_dir, output_dir, backend, model, files_total, files_failed, total_duration_secs
		FROM runs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	return scanRun(rows)
}

// GetRunFiles returns the per-file outcomes of a run in discovery order.
func (s *RunStorage) GetRunFiles(runID int64) ([]*RunFileRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, position, name, output_base, duration_secs, status, error
		FROM run_files
		WHERE run_id = ?
		ORDER BY position ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query run files: %w", err)
	}
	defer rows.Close()

	var records []*RunFileRecord
	for rows.Next() {
		var record RunFileRecord
		var errMsg sql.NullString
		if err := rows.Scan(
			&record.ID,
			&record.RunID,
			&record.Position,
			&record.Name,
			&record.OutputBase,
			&record.DurationSecs,
			&record.Status,
			&errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run file: %w", err)
		}
		record.Error = errMsg.String
		records = append(records, &record)
	}
	return records, rows.Err()
}

func scanRun(rows *sql.Rows) (*RunRecord, error) {
	var record RunRecord
	var startedAt, finishedAt string
	if err := rows.Scan(
		&record.ID,
		&startedAt,
		&finishedAt,
		&record.InputDir,
		&record.OutputDir,
		&record.Backend,
		&record.Model,
		&record.FilesTotal,
		&record.FilesFailed,
		&record.TotalDurationSecs,
	); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, startedAt); err == nil {
		record.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339, finishedAt); err == nil {
		record.FinishedAt = t
	}
	return &record, nil
}

// Close closes the underlying database.
func (s *RunStorage) Close() error {
	return s.db.Close()
}
