package lookup

import (
	"context"
	"errors"
	"time"

	"github.com/rpattn/recordsearch/internal/domain"
)

// LatencyObserver receives the duration and result of each lookup.
type LatencyObserver interface {
	ObserveLookup(entityType domain.EntityType, result string, d time.Duration)
}

// Instrument reports every lookup issued through next to observer.
func Instrument(next domain.EntityLookup, observer LatencyObserver) domain.EntityLookup {
	if observer == nil {
		return next
	}
	return domain.LookupFunc(func(ctx context.Context, entityType domain.EntityType, id string, fields []string) (*domain.EntityStub, error) {
		start := time.Now()
		stub, err := next.Lookup(ctx, entityType, id, fields)
		observer.ObserveLookup(entityType, lookupResult(stub, err), time.Since(start))
		return stub, err
	})
}

func lookupResult(stub *domain.EntityStub, err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound), err == nil && stub == nil:
		return "not_found"
	case err != nil:
		return "error"
	}
	return "found"
}
