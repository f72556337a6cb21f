package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cad-exporter/core/models"
)

// JobRepository handles database operations for export jobs
type JobRepository struct {
	db *DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateJob inserts a job record. Job ids are stable hashes of the unit
// tuple, so a re-export of the same unit upserts the existing row back to
// pending.
func (r *JobRepository) CreateJob(job *models.Job) error {
	query := `
		INSERT INTO jobs (
			id, document_id, element_id, studio_name, part_id, part_name,
			format, config_tag, combine, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			error = '',
			entry_name = '',
			entry_size = 0,
			content_type = '',
			updated_at = NOW()
	`
	_, err := r.db.Exec(query,
		job.ID,
		job.DocumentID,
		job.ElementID,
		job.StudioName,
		job.PartID,
		job.PartName,
		job.Format,
		job.ConfigTag,
		job.Combine,
		job.Status,
	)
	if err != nil {
		return err
	}
	return r.CreateJobEvent(job.ID, nil, job.Status, "job_created", nil)
}

// GetJob retrieves a job by ID
func (r *JobRepository) GetJob(id string) (*models.Job, error) {
	query := `
		SELECT id, document_id, element_id, studio_name, part_id, part_name,
			format, config_tag, combine, status, error, entry_name,
			entry_size, content_type, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`
	return r.scanJob(r.db.QueryRow(query, id))
}

// ListJobs retrieves jobs, optionally filtered by status, newest first.
func (r *JobRepository) ListJobs(status *models.JobStatus, limit int) ([]*models.Job, error) {
	query := `
		SELECT id, document_id, element_id, studio_name, part_id, part_name,
			format, config_tag, combine, status, error, entry_name,
			entry_size, content_type, created_at, updated_at
		FROM jobs
	`
	args := []interface{}{}
	if status != nil {
		query += " WHERE status = $1"
		args = append(args, *status)
	}
	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT %d", limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := r.scanJob(rows)
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *JobRepository) scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	err := row.Scan(
		&job.ID,
		&job.DocumentID,
		&job.ElementID,
		&job.StudioName,
		&job.PartID,
		&job.PartName,
		&job.Format,
		&job.ConfigTag,
		&job.Combine,
		&job.Status,
		&job.Error,
		&job.EntryName,
		&job.EntrySize,
		&job.ContentType,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateJobStatus updates job status atomically with event logging
func (r *JobRepository) UpdateJobStatus(jobID string, fromStatus, toStatus models.JobStatus, reason string, meta map[string]interface{}) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateQuery := `UPDATE jobs SET status = $1, updated_at = NOW() WHERE id = $2`
	if _, err := tx.Exec(updateQuery, toStatus, jobID); err != nil {
		return err
	}
	if err := r.createJobEventTx(tx, jobID, &fromStatus, toStatus, reason, meta); err != nil {
		return err
	}
	return tx.Commit()
}

// CompleteJob marks a job done and attaches the produced archive entry.
func (r *JobRepository) CompleteJob(jobID, reason, entryName string, size int64, contentType string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateQuery := `
		UPDATE jobs
		SET status = $1, entry_name = $2, entry_size = $3, content_type = $4, updated_at = NOW()
		WHERE id = $5
	`
	if _, err := tx.Exec(updateQuery, models.JobStatusDone, entryName, size, contentType, jobID); err != nil {
		return err
	}
	from := models.JobStatusExporting
	meta := map[string]interface{}{"entry_name": entryName, "entry_size": size}
	if err := r.createJobEventTx(tx, jobID, &from, models.JobStatusDone, reason, meta); err != nil {
		return err
	}
	return tx.Commit()
}

// FailJob marks a job failed with its error message.
func (r *JobRepository) FailJob(jobID, errMsg string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateQuery := `UPDATE jobs SET status = $1, error = $2, updated_at = NOW() WHERE id = $3`
	if _, err := tx.Exec(updateQuery, models.JobStatusFailed, errMsg, jobID); err != nil {
		return err
	}
	from := models.JobStatusExporting
	meta := map[string]interface{}{"error": errMsg}
	if err := r.createJobEventTx(tx, jobID, &from, models.JobStatusFailed, "export_failed", meta); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateJobEvent creates a job event outside a status transition
func (r *JobRepository) CreateJobEvent(jobID string, fromStatus *models.JobStatus, toStatus models.JobStatus, reason string, meta map[string]interface{}) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.createJobEventTx(tx, jobID, fromStatus, toStatus, reason, meta); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *JobRepository) createJobEventTx(tx *sql.Tx, jobID string, fromStatus *models.JobStatus, toStatus models.JobStatus, reason string, meta map[string]interface{}) error {
	query := `
		INSERT INTO job_events (job_id, at, from_status, to_status, reason, meta_json)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var fromStatusStr *string
	if fromStatus != nil {
		s := string(*fromStatus)
		fromStatusStr = &s
	}

	metaJSON := "{}"
	if meta != nil {
		if data, err := json.Marshal(meta); err == nil {
			metaJSON = string(data)
		}
	}

	_, err := tx.Exec(query, jobID, time.Now(), fromStatusStr, toStatus, reason, metaJSON)
	return err
}
