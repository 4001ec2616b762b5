package knowledge

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"marketscope/pkg/errors"
)

// Metadata is free-form chunk annotation stored as JSONB
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return errors.Newf("unexpected type %T for metadata", src)
	}
	return json.Unmarshal(data, m)
}

// Chunk is one embedded passage of agent output, used only for similarity
// retrieval. Chunks are never mutated after creation.
type Chunk struct {
	ID        uuid.UUID       `db:"id"`
	QueryID   uuid.UUID       `db:"query_id"`
	Content   string          `db:"content"`
	Embedding pgvector.Vector `db:"embedding"`
	Metadata  Metadata        `db:"metadata"`
	CreatedAt time.Time       `db:"created_at"`
}

// Match is a chunk returned by similarity search with its cosine score
type Match struct {
	Chunk
	Similarity float64 `db:"similarity"`
}
