package repository

import (
	"context"

	"github.com/rpattn/recordsearch/internal/domain"

	"github.com/google/uuid"
)

// RecordRepository defines the interface for the records catalog that reference
// filters resolve against.
type RecordRepository interface {
	Upsert(ctx context.Context, record domain.Record) (domain.Record, error)
	UpsertBatch(ctx context.Context, records []domain.Record) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Record, error)
	// GetByIDs returns the live (not deleted) records of entityType among ids, in no
	// particular order. Unknown ids are skipped.
	GetByIDs(ctx context.Context, entityType domain.EntityType, ids []uuid.UUID) ([]domain.Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByType(ctx context.Context, entityType domain.EntityType) (int64, error)
}
