package lookup

import (
	"time"

	"github.com/rpattn/recordsearch/internal/domain"
)

// ChainConfig selects the decorators applied by Chain. Zero values disable them.
type ChainConfig struct {
	Cache    *Cached
	Observer LatencyObserver
	Timeout  time.Duration
}

// Chain decorates base with, from the inside out, the cache, latency
// instrumentation and the per lookup timeout.
func Chain(base domain.EntityLookup, cfg ChainConfig) domain.EntityLookup {
	l := base
	if cfg.Cache != nil {
		l = cfg.Cache.Wrap(l)
	}
	l = Instrument(l, cfg.Observer)
	return WithTimeout(l, cfg.Timeout)
}
