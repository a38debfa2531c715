package repository

import (
	"database/sql"
	"time"

	"dem-fill-client/core/models"

	"github.com/google/uuid"
)

// RunRepository handles database operations for orchestration run history.
// History is an audit record of outcomes; orchestration itself never reads it.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// EnsureSchema creates the runs table if it does not exist yet
func (r *RunRepository) EnsureSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS runs (
			id              UUID PRIMARY KEY,
			job_id          TEXT,
			filename        TEXT NOT NULL,
			status          TEXT,
			success         BOOLEAN NOT NULL,
			error_kind      TEXT,
			error_message   TEXT,
			input_key       TEXT NOT NULL,
			output_key      TEXT NOT NULL,
			submitted_at    TIMESTAMPTZ,
			finished_at     TIMESTAMPTZ NOT NULL,
			elapsed_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := r.db.Exec(query)
	return err
}

// RecordOutcome inserts one immutable history row for a finished run
func (r *RunRepository) RecordOutcome(outcome *models.Outcome) error {
	query := `
		INSERT INTO runs (
			id, job_id, filename, status, success, error_kind, error_message,
			input_key, output_key, submitted_at, finished_at, elapsed_seconds, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
	`

	runID := uuid.New()
	if outcome.RunID != "" {
		var err error
		runID, err = uuid.Parse(outcome.RunID)
		if err != nil {
			return err
		}
	}

	var jobID, status *string
	var submittedAt *time.Time
	var elapsedSeconds float64
	filename := ""
	if outcome.Job != nil {
		jobID = &outcome.Job.ID
		s := string(outcome.Job.Status)
		status = &s
		t := outcome.Job.SubmittedAt
		submittedAt = &t
		elapsedSeconds = outcome.Job.ElapsedSeconds
		filename = outcome.Job.Filename
	}

	var errorKind, errorMessage *string
	if outcome.Err != nil {
		k := string(outcome.Err.Kind)
		errorKind = &k
		m := outcome.Err.Message
		errorMessage = &m
	}

	_, err := r.db.Exec(query,
		runID,
		jobID,
		filename,
		status,
		outcome.Success,
		errorKind,
		errorMessage,
		outcome.InputRef.Key,
		outcome.OutputRef.Key,
		submittedAt,
		outcome.FinishedAt,
		elapsedSeconds,
		time.Now(),
	)
	return err
}

// GetRun retrieves a run history row by ID
func (r *RunRepository) GetRun(id string) (*models.RunRecord, error) {
	query := `
		SELECT id, job_id, filename, status, success, error_kind, error_message,
			input_key, output_key, submitted_at, finished_at, elapsed_seconds, created_at
		FROM runs
		WHERE id = $1
	`

	var rec models.RunRecord
	var jobID sql.NullString
	var status sql.NullString
	var errorKind sql.NullString
	var errorMessage sql.NullString
	var submittedAt sql.NullTime

	err := r.db.QueryRow(query, id).Scan(
		&rec.ID,
		&jobID,
		&rec.Filename,
		&status,
		&rec.Success,
		&errorKind,
		&errorMessage,
		&rec.InputKey,
		&rec.OutputKey,
		&submittedAt,
		&rec.FinishedAt,
		&rec.ElapsedSeconds,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if jobID.Valid {
		rec.JobID = jobID.String
	}
	if status.Valid {
		rec.Status = models.JobStatus(status.String)
	}
	if errorKind.Valid {
		rec.ErrorKind = errorKind.String
	}
	if errorMessage.Valid {
		rec.ErrorMessage = errorMessage.String
	}
	if submittedAt.Valid {
		rec.SubmittedAt = &submittedAt.Time
	}

	return &rec, nil
}

// ListRuns lists the most recent run history rows
func (r *RunRepository) ListRuns(limit int) ([]*models.RunRecord, error) {
	query := `
		SELECT id, job_id, filename, status, success, error_kind, error_message,
			input_key, output_key, submitted_at, finished_at, elapsed_seconds, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.RunRecord
	for rows.Next() {
		var rec models.RunRecord
		var jobID sql.NullString
		var status sql.NullString
		var errorKind sql.NullString
		var errorMessage sql.NullString
		var submittedAt sql.NullTime

		err := rows.Scan(
			&rec.ID,
			&jobID,
			&rec.Filename,
			&status,
			&rec.Success,
			&errorKind,
			&errorMessage,
			&rec.InputKey,
			&rec.OutputKey,
			&submittedAt,
			&rec.FinishedAt,
			&rec.ElapsedSeconds,
			&rec.CreatedAt,
		)
		if err != nil {
			continue
		}

		if jobID.Valid {
			rec.JobID = jobID.String
		}
		if status.Valid {
			rec.Status = models.JobStatus(status.String)
		}
		if errorKind.Valid {
			rec.ErrorKind = errorKind.String
		}
		if errorMessage.Valid {
			rec.ErrorMessage = errorMessage.String
		}
		if submittedAt.Valid {
			rec.SubmittedAt = &submittedAt.Time
		}

		records = append(records, &rec)
	}

	return records, rows.Err()
}
