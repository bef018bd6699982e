package lookup

import (
	"context"
	"time"

	"github.com/rpattn/recordsearch/internal/domain"
)

// WithTimeout bounds every lookup issued through next.
func WithTimeout(next domain.EntityLookup, timeout time.Duration) domain.EntityLookup {
	if timeout <= 0 {
		return next
	}
	return domain.LookupFunc(func(ctx context.Context, entityType domain.EntityType, id string, fields []string) (*domain.EntityStub, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return next.Lookup(ctx, entityType, id, fields)
	})
}
