package models

import (
	"time"

	"github.com/google/uuid"
)

// DuplicateCluster tracks how many duplicates have accumulated against one
// canonical parent report. The location and radius are frozen at creation
// time; only ReportCount changes afterwards.
type DuplicateCluster struct {
	ID             uuid.UUID `db:"id"               json:"id"`
	ParentReportID uuid.UUID `db:"parent_report_id" json:"parent_report_id"`
	Latitude       float64   `db:"latitude"         json:"latitude"`
	Longitude      float64   `db:"longitude"        json:"longitude"`
	Radius         float64   `db:"radius"           json:"radius"`
	ReportCount    int       `db:"report_count"     json:"report_count"`
	CreatedAt      time.Time `db:"created_at"       json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"       json:"updated_at"`
}

// ClusterSummary is a DuplicateCluster joined with the parent report's
// descriptive fields, as returned by the cluster listing.
type ClusterSummary struct {
	DuplicateCluster
	ParentType        string    `db:"parent_type"        json:"parent_type"`
	ParentSeverity    string    `db:"parent_severity"    json:"parent_severity"`
	ParentStatus      string    `db:"parent_status"      json:"parent_status"`
	ParentDescription string    `db:"parent_description" json:"parent_description"`
	ParentImagePath   string    `db:"parent_image_path"  json:"parent_image_path"`
	ParentCreatedAt   time.Time `db:"parent_created_at"  json:"parent_created_at"`
}
