package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rpattn/recordsearch/internal/db"
	"github.com/rpattn/recordsearch/internal/domain"
)

const recordColumns = "id, entity_type, labels, deleted_at, created_at, updated_at"

const upsertRecordSQL = `
INSERT INTO records (id, entity_type, labels, deleted_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    entity_type = EXCLUDED.entity_type,
    labels      = EXCLUDED.labels,
    deleted_at  = EXCLUDED.deleted_at,
    updated_at  = EXCLUDED.updated_at
RETURNING ` + recordColumns

// recordRepository implements RecordRepository on PostgreSQL
type recordRepository struct {
	conn *db.Connection
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(conn *db.Connection) RecordRepository {
	return &recordRepository{conn: conn}
}

// Upsert creates or replaces a record
func (r *recordRepository) Upsert(ctx context.Context, record domain.Record) (domain.Record, error) {
	args, err := upsertArgs(record)
	if err != nil {
		return domain.Record{}, err
	}

	row := r.conn.Pool.QueryRow(ctx, upsertRecordSQL, args...)
	saved, err := scanRecord(row)
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to upsert record: %w", err)
	}
	return saved, nil
}

// UpsertBatch writes all records in one transaction
func (r *recordRepository) UpsertBatch(ctx context.Context, records []domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, record := range records {
		args, err := upsertArgs(record)
		if err != nil {
			return 0, err
		}
		batch.Queue(upsertRecordSQL, args...)
	}

	written := 0
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for range records {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to upsert record batch: %w", err)
			}
			written++
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// GetByID retrieves a record by ID, including deleted records
func (r *recordRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Record, error) {
	row := r.conn.Pool.QueryRow(ctx, "SELECT "+recordColumns+" FROM records WHERE id = $1", id)
	record, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Record{}, fmt.Errorf("failed to get record %s: %w", id, domain.ErrNotFound)
		}
		return domain.Record{}, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}

// GetByIDs retrieves the live records of one type among ids
func (r *recordRepository) GetByIDs(ctx context.Context, entityType domain.EntityType, ids []uuid.UUID) ([]domain.Record, error) {
	if len(ids) == 0 {
		return []domain.Record{}, nil
	}

	rows, err := r.conn.Pool.Query(ctx,
		"SELECT "+recordColumns+" FROM records WHERE entity_type = $1 AND id = ANY($2) AND deleted_at IS NULL",
		string(entityType), ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get records by IDs: %w", err)
	}
	defer rows.Close()

	records := make([]domain.Record, 0, len(ids))
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// Delete soft deletes a record so existing references stop resolving
func (r *recordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn.Pool.Exec(ctx,
		"UPDATE records SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL",
		id, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete record %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CountByType counts live records of a type
func (r *recordRepository) CountByType(ctx context.Context, entityType domain.EntityType) (int64, error) {
	var count int64
	err := r.conn.Pool.QueryRow(ctx,
		"SELECT count(*) FROM records WHERE entity_type = $1 AND deleted_at IS NULL",
		string(entityType),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

func upsertArgs(record domain.Record) ([]any, error) {
	labels := record.Labels
	if labels == nil {
		labels = map[string]string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal labels: %w", err)
	}
	createdAt, updatedAt := record.CreatedAt, record.UpdatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	return []any{record.ID, string(record.EntityType), labelsJSON, record.DeletedAt, createdAt, updatedAt}, nil
}

func scanRecord(row pgx.Row) (domain.Record, error) {
	var (
		record     domain.Record
		entityType string
		labelsJSON []byte
	)
	if err := row.Scan(&record.ID, &entityType, &labelsJSON, &record.DeletedAt, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return domain.Record{}, err
	}
	record.EntityType = domain.EntityType(entityType)
	if len(labelsJSON) > 0 {
		if err := json.Unmarshal(labelsJSON, &record.Labels); err != nil {
			return domain.Record{}, fmt.Errorf("failed to decode labels: %w", err)
		}
	}
	if record.Labels == nil {
		record.Labels = map[string]string{}
	}
	return record, nil
}
