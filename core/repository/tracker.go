package repository

import "cad-exporter/core/models"

// Tracker adapts the repositories to the export engine's job tracker
// boundary: one job row per unit, an event per transition, an artifact row
// per produced archive entry.
type Tracker struct {
	jobs      *JobRepository
	artifacts *ArtifactRepository
}

// NewTracker creates a tracker over the given database
func NewTracker(db *DB) *Tracker {
	return &Tracker{
		jobs:      NewJobRepository(db),
		artifacts: NewArtifactRepository(db),
	}
}

// CreateJob records a fresh pending job.
func (t *Tracker) CreateJob(job *models.Job) error {
	return t.jobs.CreateJob(job)
}

// MarkExporting transitions a job to exporting.
func (t *Tracker) MarkExporting(jobID string) error {
	return t.jobs.UpdateJobStatus(jobID, models.JobStatusPending, models.JobStatusExporting, "export_started", nil)
}

// MarkDone transitions a job to done and attaches the produced entry.
func (t *Tracker) MarkDone(jobID, reason, entryName string, size int64, contentType string) error {
	return t.jobs.CompleteJob(jobID, reason, entryName, size, contentType)
}

// MarkFailed transitions a job to failed.
func (t *Tracker) MarkFailed(jobID, errMsg string) error {
	return t.jobs.FailJob(jobID, errMsg)
}

// RecordArtifact stores the archive entry produced by a job.
func (t *Tracker) RecordArtifact(jobID, name string, meta map[string]interface{}) error {
	return t.artifacts.CreateArtifact(jobID, models.ArtifactTypeArchiveEntry, name, meta)
}
