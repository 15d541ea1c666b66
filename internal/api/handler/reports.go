// Package handler contains the HTTP handlers for the CiviDup API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cividup/cividup/internal/api/response"
	"github.com/cividup/cividup/internal/dedup"
	"github.com/cividup/cividup/internal/store"
	"github.com/cividup/cividup/pkg/models"
)

type createReportRequest struct {
	Fingerprint string   `json:"fingerprint"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Type        string   `json:"type"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	ImagePath   string   `json:"image_path"`
}

type createReportResponse struct {
	Report  *models.Report `json:"report"`
	Verdict *dedup.Verdict `json:"verdict"`
}

// NewCreateReportHandler returns the handler for POST /api/v1/reports.
// The report row is persisted as open first, then the duplicate check runs
// synchronously and may re-mark it before the response is written.
func NewCreateReportHandler(engine *dedup.Engine, s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Fingerprint == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "fingerprint is required", nil)
			return
		}
		if req.Latitude == nil || req.Longitude == nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "latitude and longitude are required", nil)
			return
		}
		if *req.Latitude < -90 || *req.Latitude > 90 || *req.Longitude < -180 || *req.Longitude > 180 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "coordinates out of range", nil)
			return
		}

		now := time.Now().UTC()
		report := &models.Report{
			ID:          uuid.New(),
			Fingerprint: req.Fingerprint,
			Latitude:    *req.Latitude,
			Longitude:   *req.Longitude,
			Type:        req.Type,
			Severity:    req.Severity,
			Status:      models.StatusReported,
			Description: req.Description,
			ImagePath:   req.ImagePath,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := s.CreateReport(r.Context(), report); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create report", nil)
			return
		}

		verdict, err := engine.CheckAndMark(r.Context(), report.ID, report.Fingerprint, report.Latitude, report.Longitude)
		if err != nil && !errors.Is(err, dedup.ErrClusterInconsistent) {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Duplicate check failed", nil)
			return
		}
		// On ErrClusterInconsistent the report is already marked; cluster
		// bookkeeping is reconciled out of band, so respond with the verdict.

		if verdict.IsDuplicate {
			report.Status = models.StatusDuplicate
			report.DuplicateOf = verdict.DuplicateOf
		}

		response.Created(w, createReportResponse{Report: report, Verdict: verdict})
	}
}

// NewGetReportHandler returns the handler for GET /api/v1/reports/{reportID}.
func NewGetReportHandler(s store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "reportID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "reportID must be a valid UUID", nil)
			return
		}

		report, err := s.GetReportByID(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Report not found", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch report", nil)
			return
		}

		response.JSON(w, report)
	}
}
