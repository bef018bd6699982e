package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/recordsearch/internal/domain"
)

// memoryRecordRepository keeps the catalog in process, for development and tests.
type memoryRecordRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.Record
}

// NewMemoryRecordRepository creates an empty in-memory record repository
func NewMemoryRecordRepository(seed ...domain.Record) RecordRepository {
	r := &memoryRecordRepository{records: make(map[uuid.UUID]domain.Record, len(seed))}
	for _, record := range seed {
		r.records[record.ID] = record
	}
	return r
}

func (r *memoryRecordRepository) Upsert(_ context.Context, record domain.Record) (domain.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = record.CreatedAt
	}
	r.records[record.ID] = record
	return record, nil
}

func (r *memoryRecordRepository) UpsertBatch(ctx context.Context, records []domain.Record) (int, error) {
	for i, record := range records {
		if _, err := r.Upsert(ctx, record); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

func (r *memoryRecordRepository) GetByID(_ context.Context, id uuid.UUID) (domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return domain.Record{}, fmt.Errorf("failed to get record %s: %w", id, domain.ErrNotFound)
	}
	return record, nil
}

func (r *memoryRecordRepository) GetByIDs(_ context.Context, entityType domain.EntityType, ids []uuid.UUID) ([]domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		record, ok := r.records[id]
		if !ok || record.EntityType != entityType || record.IsDeleted() {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (r *memoryRecordRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok || record.IsDeleted() {
		return fmt.Errorf("failed to delete record %s: %w", id, domain.ErrNotFound)
	}
	r.records[id] = record.Deleted(time.Now())
	return nil
}

func (r *memoryRecordRepository) CountByType(_ context.Context, entityType domain.EntityType) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int64
	for _, record := range r.records {
		if record.EntityType == entityType && !record.IsDeleted() {
			count++
		}
	}
	return count, nil
}
