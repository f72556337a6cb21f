package routes

import (
	"cad-exporter/api/rest/handlers"
	"cad-exporter/core/exporter"
	"cad-exporter/core/repository"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *mux.Router, db *repository.DB, engine *exporter.Engine) {
	jobRepo := repository.NewJobRepository(db)
	eventRepo := repository.NewEventRepository(db)
	artifactRepo := repository.NewArtifactRepository(db)
	exportHandler := handlers.NewExportHandler(engine)
	jobHandler := handlers.NewJobHandler(jobRepo, eventRepo, artifactRepo)

	api := r.PathPrefix("/v1").Subrouter()

	// Export endpoint
	api.HandleFunc("/export", exportHandler.Export).Methods("POST")

	// Job endpoints
	api.HandleFunc("/jobs", jobHandler.ListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", jobHandler.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}/events", jobHandler.GetJobEvents).Methods("GET")
	api.HandleFunc("/jobs/{id}/artifacts", jobHandler.GetJobArtifacts).Methods("GET")
}
