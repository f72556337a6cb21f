package models

import "time"

// JobEvent represents a state transition event for a job
type JobEvent struct {
	ID         int64
	JobID      string
	At         time.Time
	FromStatus *JobStatus
	ToStatus   JobStatus
	Reason     string
	MetaJSON   map[string]interface{}
}

// ArtifactType represents the type of job artifact
type ArtifactType string

const (
	ArtifactTypeArchiveEntry ArtifactType = "archive_entry"
	ArtifactTypeLog          ArtifactType = "log"
)

// JobArtifact represents a file produced by a job, typically the archive
// entry written for a successful export.
type JobArtifact struct {
	ID        int64
	JobID     string
	Type      ArtifactType
	Name      string
	CreatedAt time.Time
	MetaJSON  map[string]interface{}
}
