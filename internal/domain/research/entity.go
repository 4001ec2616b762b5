package research

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a research query.
// Transitions: pending → processing → completed|failed. Both completed and
// failed are terminal; a query never reverts to pending.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid checks if status is a known lifecycle state
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status ends the lifecycle
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// String returns string representation
func (s Status) String() string {
	return string(s)
}

// SubjectType classifies what kind of subject is being researched
type SubjectType string

const (
	SubjectProduct SubjectType = "product"
	SubjectCompany SubjectType = "company"
)

// Valid checks if subject type is known
func (t SubjectType) Valid() bool {
	return t == SubjectProduct || t == SubjectCompany
}

// Provenance tags which fallback tier produced a derived record:
// live external signal, a generative model, or fixed placeholder content.
type Provenance string

const (
	ProvenanceLive        Provenance = "live"
	ProvenanceGenerative  Provenance = "generative"
	ProvenancePlaceholder Provenance = "placeholder"
)

// Query is the root aggregate of a research run. All derived records
// (sentiment, competitor, trend, report, chunks) hang off its ID and are
// removed with it.
type Query struct {
	ID          uuid.UUID   `db:"id"`
	SubjectText string      `db:"subject_text"`
	SubjectType SubjectType `db:"subject_type"`
	Status      Status      `db:"status"`
	OwnerID     uuid.UUID   `db:"owner_id"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

// StatusEvent is a single status transition, published to the change feed
// so the presentation layer can observe progress without polling.
type StatusEvent struct {
	QueryID    uuid.UUID `json:"query_id"`
	Status     Status    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}
