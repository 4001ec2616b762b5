package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketscope/internal/domain/research"
	"marketscope/internal/testsupport"
	"marketscope/pkg/errors"
)

func newTestQuery(ownerID uuid.UUID) *research.Query {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &research.Query{
		ID:          uuid.New(),
		SubjectText: "iPhone 15",
		SubjectType: research.SubjectProduct,
		Status:      research.StatusPending,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestQueryRepository_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewQueryRepository(testDB.DB())
	ctx := context.Background()

	q := newTestQuery(uuid.New())
	require.NoError(t, repo.Create(ctx, q))
	t.Cleanup(func() { _ = repo.Delete(ctx, q.ID) })

	got, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.SubjectText, got.SubjectText)
	assert.Equal(t, research.SubjectProduct, got.SubjectType)
	assert.Equal(t, research.StatusPending, got.Status)
	assert.Equal(t, q.OwnerID, got.OwnerID)
}

func TestQueryRepository_GetByID_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewQueryRepository(testDB.DB())

	_, err := repo.GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrQueryNotFound))
}

func TestQueryRepository_UpdateStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewQueryRepository(testDB.DB())
	ctx := context.Background()

	q := newTestQuery(uuid.New())
	require.NoError(t, repo.Create(ctx, q))
	t.Cleanup(func() { _ = repo.Delete(ctx, q.ID) })

	require.NoError(t, repo.UpdateStatus(ctx, q.ID, research.StatusProcessing))
	require.NoError(t, repo.UpdateStatus(ctx, q.ID, research.StatusCompleted))

	got, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, research.StatusCompleted, got.Status)
}

func TestQueryRepository_UpdateStatus_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewQueryRepository(testDB.DB())

	err := repo.UpdateStatus(context.Background(), uuid.New(), research.StatusFailed)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrQueryNotFound))
}

func TestQueryRepository_ListByOwner(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewQueryRepository(testDB.DB())
	ctx := context.Background()

	ownerID := uuid.New()
	first := newTestQuery(ownerID)
	second := newTestQuery(ownerID)
	second.SubjectText = "Tesla"
	second.SubjectType = research.SubjectCompany
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	second.UpdatedAt = second.CreatedAt

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	t.Cleanup(func() {
		_ = repo.Delete(ctx, first.ID)
		_ = repo.Delete(ctx, second.ID)
	})

	queries, err := repo.ListByOwner(ctx, ownerID, 10)
	require.NoError(t, err)
	require.Len(t, queries, 2)

	// Newest first
	assert.Equal(t, second.ID, queries[0].ID)
	assert.Equal(t, first.ID, queries[1].ID)

	limited, err := repo.ListByOwner(ctx, ownerID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestQueryRepository_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	testDB := testsupport.NewTestPostgres(t)
	repo := NewQueryRepository(testDB.DB())
	ctx := context.Background()

	q := newTestQuery(uuid.New())
	require.NoError(t, repo.Create(ctx, q))
	require.NoError(t, repo.Delete(ctx, q.ID))

	_, err := repo.GetByID(ctx, q.ID)
	assert.True(t, errors.Is(err, errors.ErrQueryNotFound))
}
