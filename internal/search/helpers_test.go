package search

import (
	"context"
	"sync"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/filter"
)

// stubLookup serves stubs from a map. Keys listed in failures return that error.
type stubLookup struct {
	mu       sync.Mutex
	stubs    map[string]*domain.EntityStub
	failures map[string]error
	calls    []string
	// gate, when set, blocks every lookup until it is closed or ctx ends.
	gate chan struct{}
}

func newStubLookup(stubs ...*domain.EntityStub) *stubLookup {
	l := &stubLookup{stubs: map[string]*domain.EntityStub{}, failures: map[string]error{}}
	for _, s := range stubs {
		l.stubs[s.UUID] = s
	}
	return l
}

func (l *stubLookup) Lookup(ctx context.Context, entityType domain.EntityType, uuid string, fields []string) (*domain.EntityStub, error) {
	l.mu.Lock()
	l.calls = append(l.calls, uuid)
	gate := l.gate
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err, ok := l.failures[uuid]; ok {
		return nil, err
	}
	stub, ok := l.stubs[uuid]
	if !ok || stub.Type != entityType {
		return nil, domain.ErrNotFound
	}
	return stub.Project(fields), nil
}

func (l *stubLookup) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

type outcomeRecord struct {
	key     string
	outcome filter.Outcome
}

type stubRecorder struct {
	mu       sync.Mutex
	outcomes []outcomeRecord
	loads    []string
}

func (r *stubRecorder) ObserveFilterOutcome(_ domain.EntityType, key string, outcome filter.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcomeRecord{key: key, outcome: outcome})
}

func (r *stubRecorder) ObserveLoad(_ domain.EntityType, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, result)
}

func (r *stubRecorder) loadResults() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.loads...)
}

func j2() *domain.EntityStub {
	return domain.NewEntityStub(domain.EntityTypeOrganizations, "org-123", map[string]string{
		"shortName":          "J2",
		"identificationCode": "J2-001",
	})
}
