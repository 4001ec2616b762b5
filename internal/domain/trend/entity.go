package trend

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"marketscope/internal/domain/research"
	"marketscope/pkg/errors"
)

// Direction describes where a trend is heading
type Direction string

const (
	DirectionIncreasing Direction = "increasing"
	DirectionDecreasing Direction = "decreasing"
	DirectionStable     Direction = "stable"
)

// Valid checks if the direction is known
func (d Direction) Valid() bool {
	switch d {
	case DirectionIncreasing, DirectionDecreasing, DirectionStable:
		return true
	}
	return false
}

// DataPoint is a single observation on a trend timeline
type DataPoint struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Volume   int64  `json:"volume"`
	Interest int    `json:"interest"` // 0-100
}

// DataPoints is an ordered series stored as JSONB
type DataPoints []DataPoint

// Value implements driver.Valuer for JSONB storage
func (p DataPoints) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB retrieval
func (p *DataPoints) Scan(src interface{}) error {
	if src == nil {
		*p = nil
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return errors.Newf("unexpected type %T for data_points", src)
	}
	return json.Unmarshal(data, p)
}

// Record is one keyword trend observation for a research query
type Record struct {
	ID           uuid.UUID           `db:"id"`
	QueryID      uuid.UUID           `db:"query_id"`
	Keyword      string              `db:"keyword"`
	SearchVolume *int64              `db:"search_volume"`
	Direction    Direction           `db:"trend_direction"`
	TimePeriod   string              `db:"time_period"` // 30d, 90d, 1y
	DataPoints   DataPoints          `db:"data_points"`
	Provenance   research.Provenance `db:"provenance"`
	CreatedAt    time.Time           `db:"created_at"`
}
