package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/rpattn/recordsearch/internal/domain"
)

const defaultFlightTimeout = 5 * time.Second

// StubStore is the subset of the redis client used by Cached.
type StubStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CacheOption configures a Cached lookup.
type CacheOption func(*Cached)

// WithCacheLogger sets the logger used to report store failures.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *Cached) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithFlightTimeout bounds the shared lookup behind a miss. The flight does not
// inherit the cancellation of the caller that started it.
func WithFlightTimeout(timeout time.Duration) CacheOption {
	return func(c *Cached) {
		if timeout > 0 {
			c.flightTimeout = timeout
		}
	}
}

// WithCachePrefix overrides the key prefix.
func WithCachePrefix(prefix string) CacheOption {
	return func(c *Cached) {
		c.prefix = prefix
	}
}

// Cached serves stubs from a redis store and falls back to next on a miss.
// Concurrent misses for the same key share one call to next; each caller stops
// waiting when its own context is done. Store failures are logged and never
// fail a lookup.
type Cached struct {
	next          domain.EntityLookup
	store         StubStore
	ttl           time.Duration
	flightTimeout time.Duration
	prefix        string
	logger        *slog.Logger
	group         *singleflight.Group
}

// NewCached wraps next with a redis backed cache.
func NewCached(next domain.EntityLookup, store StubStore, ttl time.Duration, opts ...CacheOption) *Cached {
	c := &Cached{
		next:          next,
		store:         store,
		ttl:           ttl,
		flightTimeout: defaultFlightTimeout,
		prefix:        "stub",
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		group:         new(singleflight.Group),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wrap returns a cache over next that shares this cache's store and in-flight
// calls, used to put a request scoped loader behind a process wide cache.
func (c *Cached) Wrap(next domain.EntityLookup) *Cached {
	return &Cached{
		next:          next,
		store:         c.store,
		ttl:           c.ttl,
		flightTimeout: c.flightTimeout,
		prefix:        c.prefix,
		logger:        c.logger,
		group:         c.group,
	}
}

// Lookup implements domain.EntityLookup.
func (c *Cached) Lookup(ctx context.Context, entityType domain.EntityType, id string, fields []string) (*domain.EntityStub, error) {
	key := c.cacheKey(entityType, id, fields)

	if stub, ok := c.get(ctx, key); ok {
		stub.Type = entityType
		return stub, nil
	}

	next := c.next
	flight := c.group.DoChan(key, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.flightTimeout)
		defer cancel()

		stub, err := next.Lookup(flightCtx, entityType, id, fields)
		if err != nil {
			return nil, err
		}
		if stub == nil {
			return nil, fmt.Errorf("%s %s: %w", entityType, id, domain.ErrNotFound)
		}
		c.set(flightCtx, key, stub)
		return stub, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-flight:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	// Callers sharing a flight must not share the stub.
	shared := res.Val.(*domain.EntityStub)
	return domain.NewEntityStub(shared.Type, shared.UUID, shared.Fields), nil
}

func (c *Cached) cacheKey(entityType domain.EntityType, id string, fields []string) string {
	return fmt.Sprintf("%s:%s:%s:%s", c.prefix, entityType, id, strings.Join(fields, ","))
}

func (c *Cached) get(ctx context.Context, key string) (*domain.EntityStub, bool) {
	payload, err := c.store.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("[CACHE] read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var stub domain.EntityStub
	if err := json.Unmarshal(payload, &stub); err != nil {
		c.logger.Warn("[CACHE] discarding undecodable entry", "key", key, "error", err)
		return nil, false
	}
	return &stub, true
}

func (c *Cached) set(ctx context.Context, key string, stub *domain.EntityStub) {
	payload, err := json.Marshal(stub)
	if err != nil {
		c.logger.Warn("[CACHE] encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("[CACHE] write failed", "key", key, "error", err)
	}
}
