// Package repository implements domain repository interfaces using SQLite.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/canonical/sqlair"
	"github.com/google/uuid"

	"semlake/internal/domain"
)

// Compile-time check.
var _ domain.DatasetRepository = (*DatasetRepo)(nil)

// datasetRow mirrors the datasets table for sqlair binding.
type datasetRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Definition string    `db:"definition"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

var (
	stmtUpsertDataset = sqlair.MustPrepare(`
		INSERT INTO datasets (id, name, definition, created_at, updated_at)
		VALUES ($datasetRow.id, $datasetRow.name, $datasetRow.definition, $datasetRow.created_at, $datasetRow.updated_at)
		ON CONFLICT (name) DO UPDATE SET
			definition = excluded.definition,
			updated_at = excluded.updated_at`, datasetRow{})

	stmtGetDataset = sqlair.MustPrepare(`
		SELECT &datasetRow.* FROM datasets WHERE name = $M.name`, datasetRow{}, sqlair.M{})

	stmtListDatasets = sqlair.MustPrepare(`
		SELECT &datasetRow.* FROM datasets ORDER BY name`, datasetRow{})

	stmtDeleteDataset = sqlair.MustPrepare(`
		DELETE FROM datasets WHERE name = $M.name`, sqlair.M{})
)

// DatasetRepo persists raw dataset definitions in the SQLite metadata store.
// Writes go through the single-connection write pool, reads through the
// concurrent read pool.
type DatasetRepo struct {
	write *sqlair.DB
	read  *sqlair.DB
}

// NewDatasetRepo creates a new DatasetRepo over a write and read pool. The
// pools may be the same handle.
func NewDatasetRepo(writeDB, readDB *sql.DB) *DatasetRepo {
	return &DatasetRepo{write: sqlair.NewDB(writeDB), read: sqlair.NewDB(readDB)}
}

// Upsert inserts a dataset definition or replaces the definition of an
// existing name, bumping updated_at.
func (r *DatasetRepo) Upsert(ctx context.Context, name, definition string) error {
	now := time.Now().UTC()
	row := datasetRow{
		ID:         uuid.NewString(),
		Name:       name,
		Definition: definition,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.write.Query(ctx, stmtUpsertDataset, row).Run(); err != nil {
		return mapDBError(err)
	}
	return nil
}

// GetByName returns the stored record for a dataset.
func (r *DatasetRepo) GetByName(ctx context.Context, name string) (*domain.DatasetRecord, error) {
	var row datasetRow
	err := r.read.Query(ctx, stmtGetDataset, sqlair.M{"name": name}).Get(&row)
	if err != nil {
		return nil, mapDBError(err)
	}
	rec := recordFromRow(row)
	return &rec, nil
}

// List returns all stored datasets ordered by name.
func (r *DatasetRepo) List(ctx context.Context) ([]domain.DatasetRecord, error) {
	var rows []datasetRow
	err := r.read.Query(ctx, stmtListDatasets).GetAll(&rows)
	if err != nil {
		if errors.Is(err, sqlair.ErrNoRows) {
			return nil, nil
		}
		return nil, mapDBError(err)
	}
	records := make([]domain.DatasetRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, recordFromRow(row))
	}
	return records, nil
}

// Delete removes a dataset by name. Deleting an absent name is a no-op.
func (r *DatasetRepo) Delete(ctx context.Context, name string) error {
	if err := r.write.Query(ctx, stmtDeleteDataset, sqlair.M{"name": name}).Run(); err != nil {
		return mapDBError(err)
	}
	return nil
}

func recordFromRow(row datasetRow) domain.DatasetRecord {
	return domain.DatasetRecord{
		ID:         row.ID,
		Name:       row.Name,
		Definition: row.Definition,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, sqlair.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}
