package exporter

import (
	"sync"
	"time"

	"cad-exporter/core/models"
)

// JobTracker receives job lifecycle updates from the engine. The engine
// only writes transitions; it never reads tracker state to make decisions.
type JobTracker interface {
	CreateJob(job *models.Job) error
	MarkExporting(jobID string) error
	MarkDone(jobID, reason, entryName string, size int64, contentType string) error
	MarkFailed(jobID, errMsg string) error
	RecordArtifact(jobID, name string, meta map[string]interface{}) error
}

// MemoryTracker is an in-memory JobTracker for the one-shot CLI path and
// for tests.
type MemoryTracker struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

// NewMemoryTracker creates an empty in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{jobs: make(map[string]*models.Job)}
}

// CreateJob stores a new job record.
func (t *MemoryTracker) CreateJob(job *models.Job) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	copied := *job
	copied.CreatedAt = time.Now()
	copied.UpdatedAt = copied.CreatedAt
	t.jobs[job.ID] = &copied
	return nil
}

// MarkExporting transitions a job to exporting.
func (t *MemoryTracker) MarkExporting(jobID string) error {
	return t.update(jobID, func(j *models.Job) {
		j.Status = models.JobStatusExporting
	})
}

// MarkDone transitions a job to done and attaches the produced entry.
func (t *MemoryTracker) MarkDone(jobID, reason, entryName string, size int64, contentType string) error {
	return t.update(jobID, func(j *models.Job) {
		j.Status = models.JobStatusDone
		j.EntryName = entryName
		j.EntrySize = size
		j.ContentType = contentType
	})
}

// MarkFailed transitions a job to failed with its error message.
func (t *MemoryTracker) MarkFailed(jobID, errMsg string) error {
	return t.update(jobID, func(j *models.Job) {
		j.Status = models.JobStatusFailed
		j.Error = errMsg
	})
}

// RecordArtifact is a no-op for the in-memory tracker.
func (t *MemoryTracker) RecordArtifact(jobID, name string, meta map[string]interface{}) error {
	return nil
}

// Jobs returns a snapshot of all tracked jobs.
func (t *MemoryTracker) Jobs() []*models.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	jobs := make([]*models.Job, 0, len(t.jobs))
	for _, j := range t.jobs {
		copied := *j
		jobs = append(jobs, &copied)
	}
	return jobs
}

// Job returns one tracked job by id.
func (t *MemoryTracker) Job(jobID string) (*models.Job, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	j, ok := t.jobs[jobID]
	if !ok {
		return nil, false
	}
	copied := *j
	return &copied, true
}

func (t *MemoryTracker) update(jobID string, fn func(*models.Job)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if j, ok := t.jobs[jobID]; ok {
		fn(j)
		j.UpdatedAt = time.Now()
	}
	return nil
}
