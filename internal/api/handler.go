package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/filter"
	"github.com/rpattn/recordsearch/internal/middleware"
	"github.com/rpattn/recordsearch/internal/querystring"
	"github.com/rpattn/recordsearch/internal/search"
)

const maxBodyBytes = 1 << 20

// Handler serves the filter catalog, query composition and query rehydration.
type Handler struct {
	rehydrator *search.Rehydrator
	logger     *slog.Logger
}

// New constructs a search handler.
func New(rehydrator *search.Rehydrator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{rehydrator: rehydrator, logger: logger}
}

// Register mounts the search endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/search/filters", h.HandleFilters)
	r.Post("/search/compose", h.HandleCompose)
	r.Get("/search/rehydrate", h.HandleRehydrate)
}

// FilterDescriptor describes one registered filter to clients building an
// "add filter" menu.
type FilterDescriptor struct {
	Key        string            `json:"key"`
	Label      string            `json:"label"`
	Kind       filter.Kind       `json:"kind"`
	Capability filter.Capability `json:"capability"`
	IsExtra    bool              `json:"isExtra,omitempty"`
	QueryKeys  []string          `json:"queryKeys"`
	Options    []filter.Option   `json:"options,omitempty"`
	EntityType domain.EntityType `json:"entityType,omitempty"`
	Default    filter.Value      `json:"default"`
}

// FiltersResponse is returned by GET /search/filters.
type FiltersResponse struct {
	EntityType domain.EntityType  `json:"entityType"`
	Filters    []FilterDescriptor `json:"filters"`
}

// ComposeRequest is the body of POST /search/compose.
type ComposeRequest struct {
	EntityType string          `json:"entityType"`
	Filters    []ComposeFilter `json:"filters"`
}

// ComposeFilter carries one active filter in its JSON wire shape.
type ComposeFilter struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// ComposeResponse returns the composed query and its URL form.
type ComposeResponse struct {
	Query       domain.SearchQuery `json:"query"`
	QueryString string             `json:"queryString"`
}

// RehydrateResponse returns the filters reconstructed from a query string.
type RehydrateResponse struct {
	EntityType domain.EntityType     `json:"entityType"`
	Filters    []search.ActiveFilter `json:"filters"`
}

// HandleFilters handles GET /search/filters?entityType=People.
func (h *Handler) HandleFilters(w http.ResponseWriter, r *http.Request) {
	entityType, ok := h.entityTypeParam(w, r.URL.Query().Get("entityType"))
	if !ok {
		return
	}

	reg := h.rehydrator.Registry()
	extras, err := reg.ExtrasFor(entityType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defs, err := reg.DefinitionsFor(entityType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := FiltersResponse{EntityType: entityType, Filters: make([]FilterDescriptor, 0, len(extras)+len(defs))}
	for _, def := range append(extras, defs...) {
		resp.Filters = append(resp.Filters, describe(def))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCompose handles POST /search/compose.
func (h *Handler) HandleCompose(w http.ResponseWriter, r *http.Request) {
	var req ComposeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	entityType, ok := h.entityTypeParam(w, req.EntityType)
	if !ok {
		return
	}

	reg := h.rehydrator.Registry()
	active := make([]search.ActiveFilter, 0, len(req.Filters))
	for _, f := range req.Filters {
		def, ok := reg.Definition(entityType, f.Key)
		if !ok {
			h.logger.InfoContext(r.Context(), "[SEARCH] ignoring unknown filter", "entity_type", entityType, "key", f.Key)
			continue
		}
		value, err := def.DecodeValue(f.Value)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		active = append(active, search.ActiveFilter{Key: f.Key, Value: value})
	}

	query, err := search.Compose(reg, entityType, active)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ComposeResponse{Query: query, QueryString: querystring.Encode(query)})
}

// HandleRehydrate handles GET /search/rehydrate?entityType=People&<query>.
func (h *Handler) HandleRehydrate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	values := r.URL.Query()
	entityType, ok := h.entityTypeParam(w, values.Get("entityType"))
	if !ok {
		return
	}
	values.Del("entityType")

	q, err := querystring.FromValues(values)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rehydrator := h.rehydrator
	if lookup := middleware.LookupFromContext(ctx); lookup != nil {
		rehydrator = rehydrator.WithLookup(lookup)
	}

	filters, err := rehydrator.Rehydrate(ctx, entityType, q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.InfoContext(ctx, "[SEARCH] rehydrated query",
		"entity_type", entityType,
		"query_keys", len(q),
		"filters", len(filters),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, RehydrateResponse{EntityType: entityType, Filters: filters})
}

func (h *Handler) entityTypeParam(w http.ResponseWriter, raw string) (domain.EntityType, bool) {
	if raw == "" {
		writeJSONError(w, http.StatusBadRequest, "entityType is required")
		return "", false
	}
	entityType, ok := domain.ParseEntityType(raw)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown entity type %q", raw))
		return "", false
	}
	return entityType, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownEntityType),
		errors.Is(err, filter.ErrInvalidValue),
		errors.Is(err, querystring.ErrMalformed):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "[SEARCH] request failed", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}

func describe(def *filter.Definition) FilterDescriptor {
	return FilterDescriptor{
		Key:        def.Key,
		Label:      def.Label,
		Kind:       def.Kind,
		Capability: def.Capability,
		IsExtra:    def.IsExtra,
		QueryKeys:  def.QueryKeys(),
		Options:    def.Props.Options,
		EntityType: def.Props.EntityType,
		Default:    def.DefaultValue(nil),
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
