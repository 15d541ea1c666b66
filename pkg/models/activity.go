package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity actions written by the duplicate engine.
const (
	ActionMarkedDuplicate = "marked_duplicate"
)

// ActivityEntry is an audit record describing something that happened to a
// report. Appends are fire-and-forget: a failed append never rolls back the
// change it describes.
type ActivityEntry struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	ReportID  uuid.UUID `db:"report_id"  json:"report_id"`
	Action    string    `db:"action"     json:"action"`
	Details   string    `db:"details"    json:"details"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
