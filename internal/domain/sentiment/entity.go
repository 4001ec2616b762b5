package sentiment

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"marketscope/internal/domain/research"
)

// Class is the sentiment polarity of a single observation
type Class string

const (
	ClassPositive Class = "positive"
	ClassNegative Class = "negative"
	ClassNeutral  Class = "neutral"
)

// Valid checks if the class is known
func (c Class) Valid() bool {
	switch c {
	case ClassPositive, ClassNegative, ClassNeutral:
		return true
	}
	return false
}

// String returns string representation
func (c Class) String() string {
	return string(c)
}

// Record is one normalized sentiment observation for a research query.
// Records are append-only: created once by the sentiment agent, never updated.
type Record struct {
	ID         uuid.UUID           `db:"id"`
	QueryID    uuid.UUID           `db:"query_id"`
	Source     string              `db:"source"`
	Sentiment  Class               `db:"sentiment"`
	Confidence float64             `db:"confidence"` // 0.0-1.0
	Content    string              `db:"content"`
	Topics     pq.StringArray      `db:"topics"`
	Provenance research.Provenance `db:"provenance"`
	CreatedAt  time.Time           `db:"created_at"`
}
