package lookup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/graph-gophers/dataloader"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/repository"
)

const keySeparator = "|"

// Batched resolves references through the records repository, coalescing the
// lookups issued within one wait window into a single query per entity type. A
// Batched caches what it has loaded, so create one per request.
type Batched struct {
	loader *dataloader.Loader
}

// NewBatched creates a batching lookup over repo.
func NewBatched(repo repository.RecordRepository, wait time.Duration) *Batched {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		results := make([]*dataloader.Result, len(keys))

		// Group ids by entity type, remembering each key's slot
		type slot struct {
			index int
			id    uuid.UUID
		}
		grouped := make(map[domain.EntityType][]slot)
		for i, k := range keys {
			entityType, rawID, ok := splitLoaderKey(k.String())
			if !ok {
				results[i] = &dataloader.Result{Error: fmt.Errorf("invalid lookup key %q: %w", k.String(), domain.ErrNotFound)}
				continue
			}
			id, err := uuid.Parse(rawID)
			if err != nil {
				results[i] = &dataloader.Result{Error: fmt.Errorf("invalid UUID %q: %w", rawID, domain.ErrNotFound)}
				continue
			}
			grouped[entityType] = append(grouped[entityType], slot{index: i, id: id})
		}

		for entityType, slots := range grouped {
			ids := make([]uuid.UUID, len(slots))
			for i, s := range slots {
				ids[i] = s.id
			}

			records, err := repo.GetByIDs(ctx, entityType, ids)
			if err != nil {
				for _, s := range slots {
					results[s.index] = &dataloader.Result{Error: err}
				}
				continue
			}

			byID := make(map[uuid.UUID]domain.Record, len(records))
			for _, r := range records {
				byID[r.ID] = r
			}
			for _, s := range slots {
				if r, ok := byID[s.id]; ok {
					results[s.index] = &dataloader.Result{Data: r}
				} else {
					results[s.index] = &dataloader.Result{Data: nil}
				}
			}
		}

		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(wait))
	return &Batched{loader: loader}
}

// Lookup implements domain.EntityLookup.
func (b *Batched) Lookup(ctx context.Context, entityType domain.EntityType, id string, fields []string) (*domain.EntityStub, error) {
	thunk := b.loader.Load(ctx, dataloader.StringKey(string(entityType)+keySeparator+id))
	data, err := thunk()
	if err != nil {
		return nil, err
	}
	record, ok := data.(domain.Record)
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", entityType, id, domain.ErrNotFound)
	}
	return record.Stub(fields), nil
}

func splitLoaderKey(key string) (domain.EntityType, string, bool) {
	entityType, id, ok := strings.Cut(key, keySeparator)
	if !ok || entityType == "" || id == "" {
		return "", "", false
	}
	return domain.EntityType(entityType), id, true
}
