package repository

import (
	"encoding/json"

	"cad-exporter/core/models"
)

// ArtifactRepository handles database operations for job artifacts
type ArtifactRepository struct {
	db *DB
}

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// GetJobArtifacts retrieves artifacts for a job
func (r *ArtifactRepository) GetJobArtifacts(jobID string) ([]models.JobArtifact, error) {
	query := `
		SELECT id, job_id, type, name, created_at, meta_json
		FROM job_artifacts
		WHERE job_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []models.JobArtifact
	for rows.Next() {
		var artifact models.JobArtifact
		var metaJSON string

		err := rows.Scan(
			&artifact.ID,
			&artifact.JobID,
			&artifact.Type,
			&artifact.Name,
			&artifact.CreatedAt,
			&metaJSON,
		)
		if err != nil {
			continue
		}
		if metaJSON != "" {
			json.Unmarshal([]byte(metaJSON), &artifact.MetaJSON)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

// CreateArtifact creates a new artifact record
func (r *ArtifactRepository) CreateArtifact(jobID string, artifactType models.ArtifactType, name string, meta map[string]interface{}) error {
	metaJSON := "{}"
	if meta != nil {
		if data, err := json.Marshal(meta); err == nil {
			metaJSON = string(data)
		}
	}

	query := `
		INSERT INTO job_artifacts (job_id, type, name, meta_json)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(query, jobID, artifactType, name, metaJSON)
	return err
}
