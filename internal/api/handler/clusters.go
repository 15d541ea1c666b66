package handler

import (
	"net/http"

	"github.com/cividup/cividup/internal/api/response"
	"github.com/cividup/cividup/internal/dedup"
	"github.com/cividup/cividup/pkg/models"
)

type listClustersResponse struct {
	Clusters []*models.ClusterSummary `json:"clusters"`
	Count    int                      `json:"count"`
}

// NewListClustersHandler returns the handler for GET /api/v1/clusters.
func NewListClustersHandler(engine *dedup.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clusters, err := engine.ListClusters(r.Context())
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list clusters", nil)
			return
		}
		if clusters == nil {
			clusters = []*models.ClusterSummary{}
		}

		response.JSON(w, listClustersResponse{Clusters: clusters, Count: len(clusters)})
	}
}
