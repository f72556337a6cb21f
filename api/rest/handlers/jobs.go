package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"cad-exporter/core/models"
	"cad-exporter/core/repository"

	"github.com/gorilla/mux"
)

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	jobRepo      *repository.JobRepository
	eventRepo    *repository.EventRepository
	artifactRepo *repository.ArtifactRepository
}

// NewJobHandler creates a new job handler
func NewJobHandler(
	jobRepo *repository.JobRepository,
	eventRepo *repository.EventRepository,
	artifactRepo *repository.ArtifactRepository,
) *JobHandler {
	return &JobHandler{
		jobRepo:      jobRepo,
		eventRepo:    eventRepo,
		artifactRepo: artifactRepo,
	}
}

// ListJobs handles GET /v1/jobs
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	var status *models.JobStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := models.JobStatus(s)
		status = &st
	}
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	jobs, err := h.jobRepo.ListJobs(status, limit)
	if err != nil {
		http.Error(w, "Failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{"jobs": jobResponses(jobs)})
}

// GetJob handles GET /v1/jobs/{id}
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	job, err := h.jobRepo.GetJob(jobID)
	if err != nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, jobResponse(job))
}

// GetJobEvents handles GET /v1/jobs/{id}/events
func (h *JobHandler) GetJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	events, err := h.eventRepo.GetJobEvents(jobID, 100)
	if err != nil {
		http.Error(w, "Failed to get events: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"events": events})
}

// GetJobArtifacts handles GET /v1/jobs/{id}/artifacts
func (h *JobHandler) GetJobArtifacts(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]

	artifacts, err := h.artifactRepo.GetJobArtifacts(jobID)
	if err != nil {
		http.Error(w, "Failed to get artifacts: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"artifacts": artifacts})
}

func jobResponse(job *models.Job) map[string]interface{} {
	return map[string]interface{}{
		"id":           job.ID,
		"document_id":  job.DocumentID,
		"element_id":   job.ElementID,
		"studio_name":  job.StudioName,
		"part_id":      job.PartID,
		"part_name":    job.PartName,
		"format":       job.Format,
		"config_tag":   job.ConfigTag,
		"combine":      job.Combine,
		"status":       job.Status,
		"error":        job.Error,
		"entry_name":   job.EntryName,
		"entry_size":   job.EntrySize,
		"content_type": job.ContentType,
		"created_at":   job.CreatedAt,
		"updated_at":   job.UpdatedAt,
	}
}

func jobResponses(jobs []*models.Job) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobResponse(j))
	}
	return out
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
