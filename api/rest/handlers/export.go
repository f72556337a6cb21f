package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"cad-exporter/core/exporter"
	"cad-exporter/core/models"
	"cad-exporter/providers/onshape"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ExportHandler handles export requests
type ExportHandler struct {
	engine *exporter.Engine
}

// NewExportHandler creates a new export handler
func NewExportHandler(engine *exporter.Engine) *ExportHandler {
	return &ExportHandler{engine: engine}
}

// ErrorResponse is the structured error payload
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Export handles POST /v1/export. The response is the assembled archive;
// per-unit failures are reported through the job records, not here.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req models.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	requestID := uuid.New().String()
	logrus.Infof("Export request %s: studio %s, %d formats", requestID, req.StudioName, len(req.Formats))

	result, err := h.engine.Run(r.Context(), &req)
	if err != nil {
		var vErr *exporter.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, vErr.Error(), "")
			return
		}
		var apiErr *onshape.APIError
		if errors.As(err, &apiErr) {
			writeError(w, http.StatusBadGateway, "provider request failed", apiErr.Body)
			return
		}
		writeError(w, http.StatusInternalServerError, "export failed", err.Error())
		return
	}

	failures := 0
	for _, o := range result.Outcomes {
		if o.Err != nil {
			failures++
		}
	}
	logrus.Infof("Export request %s finished: %d units, %d failed", requestID, len(result.Outcomes), failures)

	filename := req.StudioName + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Archive)
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg, Details: details})
}
