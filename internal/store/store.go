package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/cividup/cividup/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	// Reports
	CreateReport(ctx context.Context, r *models.Report) error
	GetReportByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	FindCandidates(ctx context.Context, q CandidateQuery) ([]*models.Report, error)
	MarkReportDuplicate(ctx context.Context, id, duplicateOf uuid.UUID) error

	// Duplicate clusters
	GetClusterByParent(ctx context.Context, parentID uuid.UUID) (*models.DuplicateCluster, error)
	InsertCluster(ctx context.Context, c *models.DuplicateCluster) error
	IncrementClusterCount(ctx context.Context, parentID uuid.UUID) error
	ListClusters(ctx context.Context) ([]*models.ClusterSummary, error)

	// Activity log
	AppendActivity(ctx context.Context, e *models.ActivityEntry) error

	// API keys
	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error
}

// CandidateQuery describes a bounding-box lookup for open reports. The box
// is an approximate pre-filter; exact distance filtering happens in the
// resolver. Results are ordered newest first and capped at Limit.
type CandidateQuery struct {
	MinLat, MaxLat   float64
	MinLon, MaxLon   float64
	ExcludedStatuses []string
	Limit            int
}
