package models

import "time"

// Job represents one exposed unit of export work: a single part (or a whole
// studio when combined) exported to one format under one configuration.
type Job struct {
	ID          string
	DocumentID  string
	ElementID   string
	StudioName  string
	PartID      string
	PartName    string
	Format      string
	ConfigTag   string
	Combine     bool
	Status      JobStatus
	Error       string
	EntryName   string
	EntrySize   int64
	ContentType string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// JobStatus represents the current status of an export job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusExporting JobStatus = "exporting"
	JobStatusDone      JobStatus = "done"
	JobStatusFailed    JobStatus = "failed"
)
