package store

import (
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/SouptikDatta/railways-intelligence/internal/model"
)

// Store persists batch-run tracking: runs, their partition errors and the
// progress stream. Fetched records themselves are never persisted; every
// dashboard view recomputes from the in-memory record set.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the sqlite database at dbPath and ensures the
// tracking schema exists.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			zones TEXT,
			query_types TEXT,
			status TEXT,
			total_partitions INTEGER,
			failed_partitions INTEGER,
			skipped_partitions INTEGER,
			record_count INTEGER,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_errors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			zone TEXT,
			query_type TEXT,
			error_message TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS run_progress (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			completed INTEGER,
			total INTEGER,
			percentage INTEGER,
			current_zone TEXT,
			current_query_type TEXT,
			records_fetched INTEGER,
			error_message TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS demand_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dvsn TEXT, sttn TEXT, demand_no TEXT, demand_date TEXT, demand_time TEXT,
			cnsr TEXT, cnsg TEXT, cmdt TEXT, tt TEXT, pc TEXT, via TEXT,
			rake_cmdt TEXT, dstn TEXT,
			indented_type TEXT, indented_unts TEXT, indented_8w TEXT,
			otsg_unts TEXT, otsg_8w TEXT, supplied_unts TEXT,
			zone TEXT, query_type TEXT
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying handle for collaborators that read the demand
// mirror tables (the SQL record source).
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun records a new batch run in running state.
func (s *Store) SaveRun(runID string, zones, queryTypes []string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, zones, query_types, status, total_partitions, failed_partitions, skipped_partitions, record_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, 0, 0, ?, ?)`,
		runID, strings.Join(zones, ","), strings.Join(queryTypes, ","),
		model.StatusRunning, len(zones)*len(queryTypes), now, now)
	return err
}

// FinishRun records a run's terminal status and counts.
func (s *Store) FinishRun(result *model.BatchResult) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, failed_partitions = ?, skipped_partitions = ?, record_count = ?, updated_at = ? WHERE id = ?`,
		result.Status, result.PartitionsFailed, result.PartitionsSkipped,
		result.TotalCount, now, result.RunID)
	if err != nil {
		return err
	}
	for _, pe := range result.Errors {
		if err := s.SaveRunError(result.RunID, pe); err != nil {
			return err
		}
	}
	return nil
}

// UpdateRunStatus updates a run's status only.
func (s *Store) UpdateRunStatus(runID, status string) error {
	_, err := s.db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID)
	return err
}

// SaveRunError records one partition's terminal failure.
func (s *Store) SaveRunError(runID string, pe model.PartitionError) error {
	_, err := s.db.Exec(
		`INSERT INTO run_errors (run_id, zone, query_type, error_message, created_at) VALUES (?, ?, ?, ?, ?)`,
		runID, pe.Zone, pe.QueryType, pe.ErrorMessage, time.Now().UTC())
	return err
}

// SaveProgress appends one progress event to the run's stream.
func (s *Store) SaveProgress(runID string, ev model.ProgressEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO run_progress (run_id, completed, total, percentage, current_zone, current_query_type, records_fetched, error_message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, ev.Completed, ev.Total, ev.Percentage, ev.CurrentZone,
		ev.CurrentQueryType, ev.RecordsFetched, ev.ErrorMessage, time.Now().UTC())
	return err
}

// GetRun fetches one run's tracking row.
func (s *Store) GetRun(runID string) (map[string]interface{}, error) {
	var zones, queryTypes, status string
	var total, failed, skipped, recordCount int
	var createdAt, updatedAt time.Time

	err := s.db.QueryRow(
		`SELECT zones, query_types, status, total_partitions, failed_partitions, skipped_partitions, record_count, created_at, updated_at
		 FROM runs WHERE id = ?`, runID).
		Scan(&zones, &queryTypes, &status, &total, &failed, &skipped, &recordCount, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"id":                runID,
		"zones":             strings.Split(zones, ","),
		"queryTypes":        strings.Split(queryTypes, ","),
		"status":            status,
		"totalPartitions":   total,
		"failedPartitions":  failed,
		"skippedPartitions": skipped,
		"recordCount":       recordCount,
		"createdAt":         createdAt,
		"updatedAt":         updatedAt,
	}, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns() ([]map[string]interface{}, error) {
	rows, err := s.db.Query(
		`SELECT id, status, record_count, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []map[string]interface{}
	for rows.Next() {
		var id, status string
		var recordCount int
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&id, &status, &recordCount, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, map[string]interface{}{
			"id":          id,
			"status":      status,
			"recordCount": recordCount,
			"createdAt":   createdAt,
			"updatedAt":   updatedAt,
		})
	}
	return runs, rows.Err()
}

// GetProgress returns a run's progress stream in emission order.
func (s *Store) GetProgress(runID string) ([]model.ProgressEvent, error) {
	rows, err := s.db.Query(
		`SELECT completed, total, percentage, current_zone, current_query_type, records_fetched, error_message
		 FROM run_progress WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.ProgressEvent
	for rows.Next() {
		var ev model.ProgressEvent
		if err := rows.Scan(&ev.Completed, &ev.Total, &ev.Percentage,
			&ev.CurrentZone, &ev.CurrentQueryType, &ev.RecordsFetched, &ev.ErrorMessage); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// GetRunErrors returns a run's partition failures.
func (s *Store) GetRunErrors(runID string) ([]model.PartitionError, error) {
	rows, err := s.db.Query(
		`SELECT zone, query_type, error_message FROM run_errors WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []model.PartitionError
	for rows.Next() {
		var pe model.PartitionError
		if err := rows.Scan(&pe.Zone, &pe.QueryType, &pe.ErrorMessage); err != nil {
			return nil, err
		}
		errs = append(errs, pe)
	}
	return errs, rows.Err()
}
