package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// JobRecord is one interview job's row, kept for the inspection endpoints.
// The row is not the source of truth for callbacks; it only mirrors what the
// pipeline reported.
type JobRecord struct {
	InterviewID    string     `json:"interviewId"`
	VideoURL       string     `json:"videoUrl"`
	Status         string     `json:"status"`
	ChunkCount     int        `json:"chunkCount"`
	FailedChunks   int        `json:"failedChunks"`
	ProcessingTime float64    `json:"processingTime"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// JobStore handles SQLite persistence of job metadata.
type JobStore struct {
	db *sql.DB
}

// NewJobStore opens (or creates) the metadata database.
func NewJobStore(dbPath string) (*JobStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		interview_id TEXT NOT NULL UNIQUE,
		video_url TEXT NOT NULL,
		status TEXT NOT NULL,
		chunk_count INTEGER NOT NULL,
		failed_chunks INTEGER NOT NULL DEFAULT 0,
		processing_time REAL NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &JobStore{db: db}, nil
}

// SaveJob records a newly accepted job.
func (s *JobStore) SaveJob(interviewID, videoURL, status string, chunkCount int) error {
	query := `
	INSERT INTO jobs (interview_id, video_url, status, chunk_count, created_at)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query, interviewID, videoURL, status, chunkCount, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save job: %v", err)
	}
	return nil
}

// UpdateStatus moves a job to a new lifecycle status.
func (s *JobStore) UpdateStatus(interviewID, status string) error {
	_, err := s.db.Exec(`UPDATE jobs SET status = ? WHERE interview_id = ?`, status, interviewID)
	if err != nil {
		return fmt.Errorf("failed to update job status: %v", err)
	}
	return nil
}

// MarkCompleted records the terminal status and outcome counters of a job.
func (s *JobStore) MarkCompleted(interviewID, status string, failedChunks int, processingTime float64) error {
	query := `
	UPDATE jobs SET status = ?, failed_chunks = ?, processing_time = ?, completed_at = ?
	WHERE interview_id = ?
	`

	_, err := s.db.Exec(query, status, failedChunks, processingTime, time.Now(), interviewID)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %v", err)
	}
	return nil
}

// GetJob retrieves one job by interview id.
func (s *JobStore) GetJob(interviewID string) (*JobRecord, error) {
	query := `
	SELECT interview_id, video_url, status, chunk_count, failed_chunks, processing_time, created_at, completed_at
	FROM jobs WHERE interview_id = ?
	`

	var rec JobRecord
	var completedAt sql.NullTime
	err := s.db.QueryRow(query, interviewID).Scan(
		&rec.InterviewID, &rec.VideoURL, &rec.Status, &rec.ChunkCount,
		&rec.FailedChunks, &rec.ProcessingTime, &rec.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %v", err)
	}
	if completedAt.Valid {
		rec.CompletedAt = &completedAt.Time
	}
	return &rec, nil
}

// ListJobs returns the most recent jobs, newest first.
func (s *JobStore) ListJobs(limit int) ([]*JobRecord, error) {
	query := `
	SELECT interview_id, video_url, status, chunk_count, failed_chunks, processing_time, created_at, completed_at
	FROM jobs ORDER BY created_at DESC LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %v", err)
	}
	defer rows.Close()

	var records []*JobRecord
	for rows.Next() {
		var rec JobRecord
		var completedAt sql.NullTime
		if err := rows.Scan(
			&rec.InterviewID, &rec.VideoURL, &rec.Status, &rec.ChunkCount,
			&rec.FailedChunks, &rec.ProcessingTime, &rec.CreatedAt, &completedAt,
		); err != nil {
			continue
		}
		if completedAt.Valid {
			rec.CompletedAt = &completedAt.Time
		}
		records = append(records, &rec)
	}

	return records, nil
}

// Close closes the database connection.
func (s *JobStore) Close() error {
	return s.db.Close()
}
