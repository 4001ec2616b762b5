package report

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"marketscope/pkg/errors"
)

// Priority levels assigned by the insight model (or fixed fallback)
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Timeline buckets for recommendations
type Timeline string

const (
	TimelineImmediate Timeline = "immediate"
	TimelineShortTerm Timeline = "short-term"
	TimelineLongTerm  Timeline = "long-term"
)

// Insight is one categorized finding in a research report
type Insight struct {
	Category    string   `json:"category"` // pricing|sentiment|competitive|trending|opportunity|threat
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Impact      string   `json:"impact"`
}

// Recommendation is one timed action item. Reports are never stored with an
// empty recommendation list.
type Recommendation struct {
	Action    string   `json:"action"`
	Rationale string   `json:"rationale"`
	Timeline  Timeline `json:"timeline"`
	Priority  Priority `json:"priority"`
}

// Insights is an ordered list stored as JSONB
type Insights []Insight

func (i Insights) Value() (driver.Value, error) {
	if i == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(i)
}

func (i *Insights) Scan(src interface{}) error {
	return scanJSON(src, i, "insights")
}

// Recommendations is an ordered list stored as JSONB
type Recommendations []Recommendation

func (r Recommendations) Value() (driver.Value, error) {
	if r == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r)
}

func (r *Recommendations) Scan(src interface{}) error {
	return scanJSON(src, r, "recommendations")
}

func scanJSON(src, dest interface{}, column string) error {
	if src == nil {
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return errors.Newf("unexpected type %T for %s", src, column)
	}
	return json.Unmarshal(data, dest)
}

// Report is the aggregated executive report for a research query.
// At most one exists per query. It is written once by the insight
// aggregator and updated once more by the renderer to attach DocumentURL.
type Report struct {
	ID              uuid.UUID       `db:"id"`
	QueryID         uuid.UUID       `db:"query_id"`
	Title           string          `db:"title"`
	Summary         string          `db:"summary"`
	Insights        Insights        `db:"insights"`
	Recommendations Recommendations `db:"recommendations"`
	DocumentURL     *string         `db:"document_url"`
	CreatedAt       time.Time       `db:"created_at"`
}
