package shared

import "time"

// RecordStatus tracks the publication state of an audited row.
type RecordStatus string

const (
	RecordPublished RecordStatus = "PUBLISHED"
	RecordModified  RecordStatus = "MODIFIED"
	RecordDeleted   RecordStatus = "DELETED"
)

// Audit carries the actor and timestamp trail shared by business records.
// Stamping is done explicitly by service operations, never by hooks.
type Audit struct {
	RecordStatus RecordStatus `json:"record_status" db:"record_status"`
	CreatedBy    *int64       `json:"created_by,omitempty" db:"created_by"`
	UpdatedBy    *int64       `json:"updated_by,omitempty" db:"updated_by"`
	DeletedBy    *int64       `json:"deleted_by,omitempty" db:"deleted_by"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// StampCreate records the creating actor on first insert.
func (a *Audit) StampCreate(actorID int64, now time.Time) {
	a.RecordStatus = RecordPublished
	if actorID != 0 {
		a.CreatedBy = &actorID
	}
	a.CreatedAt = now
	a.UpdatedAt = now
}

// StampUpdate records the mutating actor.
func (a *Audit) StampUpdate(actorID int64, now time.Time) {
	if a.RecordStatus == RecordPublished {
		a.RecordStatus = RecordModified
	}
	if actorID != 0 {
		a.UpdatedBy = &actorID
	}
	a.UpdatedAt = now
}

// StampDelete marks the row soft-deleted, keeping it for history.
func (a *Audit) StampDelete(actorID int64, now time.Time) {
	a.RecordStatus = RecordDeleted
	if actorID != 0 {
		a.DeletedBy = &actorID
	}
	a.UpdatedAt = now
}

// Deleted reports whether the row carries the soft-delete marker.
func (a Audit) Deleted() bool {
	return a.RecordStatus == RecordDeleted
}
