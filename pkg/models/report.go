// Package models contains shared data models used across the CiviDup codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Report statuses. Only reports outside {duplicate, closed} are eligible
// as duplicate-match candidates.
const (
	StatusReported     = "reported"
	StatusAcknowledged = "acknowledged"
	StatusInProgress   = "in_progress"
	StatusResolved     = "resolved"
	StatusClosed       = "closed"
	StatusDuplicate    = "duplicate"
)

// Report represents a citizen-submitted issue report. The fingerprint is an
// opaque fixed-length bit-string produced upstream from the report image;
// it is compared position-wise, never decoded.
type Report struct {
	ID          uuid.UUID  `db:"id"           json:"id"`
	Fingerprint string     `db:"fingerprint"  json:"fingerprint"`
	Latitude    float64    `db:"latitude"     json:"latitude"`
	Longitude   float64    `db:"longitude"    json:"longitude"`
	Type        string     `db:"type"         json:"type"`
	Severity    string     `db:"severity"     json:"severity"`
	Status      string     `db:"status"       json:"status"`
	DuplicateOf *uuid.UUID `db:"duplicate_of" json:"duplicate_of,omitempty"`
	Description string     `db:"description"  json:"description"`
	ImagePath   string     `db:"image_path"   json:"image_path"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"   json:"updated_at"`
}

// ExcludedStatuses lists the statuses that disqualify a report from
// candidate matching.
func ExcludedStatuses() []string {
	return []string{StatusDuplicate, StatusClosed}
}
