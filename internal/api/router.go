package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/middleware"
)

// RouterConfig collects the collaborators mounted by NewRouter.
type RouterConfig struct {
	Search *Handler

	// Records and Import maintain the catalog; nil leaves them unmounted.
	Records *RecordsHandler
	Import  http.Handler

	// Lookup builds the request scoped reference lookup; nil uses the rehydrator's own.
	Lookup func() domain.EntityLookup

	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter assembles the HTTP surface of the service.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.LoggingMiddleware(cfg.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.Lookup != nil {
			r.Use(middleware.LookupMiddleware(cfg.Lookup))
		}
		cfg.Search.Register(r)
		if cfg.Records != nil {
			cfg.Records.Register(r)
		}
		if cfg.Import != nil {
			r.Method(http.MethodPost, "/records/import", cfg.Import)
		}
	})

	return r
}
