package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"

	internaldb "semlake/internal/db"
	"semlake/internal/domain"
)

func setupDatasetRepo(t *testing.T) *DatasetRepo {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	return NewDatasetRepo(writeDB, readDB)
}

func TestDatasetRepo_UpsertAndGet(t *testing.T) {
	repo := setupDatasetRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "orders", `{"measures":[]}`))

	rec, err := repo.GetByName(ctx, "orders")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "orders", rec.Name)
	assert.Equal(t, `{"measures":[]}`, rec.Definition)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.False(t, rec.UpdatedAt.IsZero())
}

func TestDatasetRepo_UpsertReplacesDefinition(t *testing.T) {
	repo := setupDatasetRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "orders", `{"measures":[]}`))
	first, err := repo.GetByName(ctx, "orders")
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, "orders", `{"dimensions":[]}`))
	second, err := repo.GetByName(ctx, "orders")
	require.NoError(t, err)

	assert.Equal(t, `{"dimensions":[]}`, second.Definition)
	// The row is updated in place, not duplicated.
	assert.Equal(t, first.ID, second.ID)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDatasetRepo_GetByName_NotFound(t *testing.T) {
	repo := setupDatasetRepo(t)

	_, err := repo.GetByName(context.Background(), "missing")
	require.Error(t, err)
	var nferr *domain.NotFoundError
	require.ErrorAs(t, err, &nferr)
}

func TestDatasetRepo_ListOrderedByName(t *testing.T) {
	repo := setupDatasetRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "orders", `{}`))
	require.NoError(t, repo.Upsert(ctx, "customers", `{}`))

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "customers", records[0].Name)
	assert.Equal(t, "orders", records[1].Name)
}

func TestDatasetRepo_ListEmpty(t *testing.T) {
	repo := setupDatasetRepo(t)

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDatasetRepo_Delete(t *testing.T) {
	repo := setupDatasetRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, "orders", `{}`))
	require.NoError(t, repo.Delete(ctx, "orders"))

	_, err := repo.GetByName(ctx, "orders")
	require.Error(t, err)

	// Deleting an absent name is a no-op.
	require.NoError(t, repo.Delete(ctx, "orders"))
}
