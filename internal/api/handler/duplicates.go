package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cividup/cividup/internal/api/response"
	"github.com/cividup/cividup/internal/dedup"
)

type checkDuplicatesRequest struct {
	Fingerprint string   `json:"fingerprint"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RadiusM     *float64 `json:"radius_m"`
}

// NewCheckDuplicatesHandler returns the handler for POST /api/v1/duplicates/check.
// This is the explicit "check before I submit" path: it runs the full
// pipeline but never mutates anything.
func NewCheckDuplicatesHandler(engine *dedup.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkDuplicatesRequest
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

		result, err := engine.FindDuplicates(r.Context(), req.Fingerprint, *req.Latitude, *req.Longitude, req.RadiusM)
		if err != nil {
			switch {
			case errors.Is(err, dedup.ErrInvalidCoordinates):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "coordinates out of range", nil)
			case errors.Is(err, dedup.ErrMissingFingerprint):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "fingerprint is required", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Duplicate check failed", nil)
			}
			return
		}

		response.JSON(w, result)
	}
}
