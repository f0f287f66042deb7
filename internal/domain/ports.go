package domain

import (
	"context"
	"time"
)

// DatasetRecord is a persisted dataset registration: the raw definition
// document keyed by dataset name.
type DatasetRecord struct {
	ID         string
	Name       string
	Definition string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DatasetRepository persists dataset definitions so the registry can be
// rehydrated on startup. Upsert replaces any prior definition wholesale.
type DatasetRepository interface {
	Upsert(ctx context.Context, name, definition string) error
	GetByName(ctx context.Context, name string) (*DatasetRecord, error)
	List(ctx context.Context) ([]DatasetRecord, error)
	Delete(ctx context.Context, name string) error
}

// ColumnSchema describes one output column of a bound semantic query.
type ColumnSchema struct {
	Name string
	Type string
}
