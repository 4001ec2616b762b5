package competitor

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"marketscope/internal/domain/research"
)

// Record is one competitor observation for a research query. Price, rating
// and URL are optional: live-tier extraction only fills what it can parse.
type Record struct {
	ID             uuid.UUID           `db:"id"`
	QueryID        uuid.UUID           `db:"query_id"`
	CompetitorName string              `db:"competitor_name"`
	Price          *decimal.Decimal    `db:"price"`
	Rating         *float64            `db:"rating"` // 0-5 scale
	URL            *string             `db:"url"`
	Features       pq.StringArray      `db:"features"`
	Provenance     research.Provenance `db:"provenance"`
	CreatedAt      time.Time           `db:"created_at"`
}
