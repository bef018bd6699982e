package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rpattn/recordsearch/internal/domain"
	"github.com/rpattn/recordsearch/internal/repository"
)

// RecordsHandler maintains the records catalog that reference filters resolve
// against. A deleted record drops out of every rehydrated query that names it.
type RecordsHandler struct {
	repo   repository.RecordRepository
	logger *slog.Logger
}

// NewRecordsHandler constructs a catalog handler over repo.
func NewRecordsHandler(repo repository.RecordRepository, logger *slog.Logger) *RecordsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordsHandler{repo: repo, logger: logger}
}

// Register mounts the catalog endpoints on the router.
func (h *RecordsHandler) Register(r chi.Router) {
	r.Get("/records/counts", h.HandleCounts)
	r.Get("/records/{id}", h.HandleGet)
	r.Put("/records/{id}", h.HandlePut)
	r.Delete("/records/{id}", h.HandleDelete)
}

// RecordRequest is the body of PUT /records/{id}.
type RecordRequest struct {
	EntityType string            `json:"entityType"`
	Labels     map[string]string `json:"labels"`
}

// CountsResponse lists the live records per entity type.
type CountsResponse struct {
	Counts map[domain.EntityType]int64 `json:"counts"`
}

// HandleCounts serves GET /records/counts.
func (h *RecordsHandler) HandleCounts(w http.ResponseWriter, r *http.Request) {
	counts := make(map[domain.EntityType]int64)
	for _, entityType := range domain.AllEntityTypes() {
		n, err := h.repo.CountByType(r.Context(), entityType)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		counts[entityType] = n
	}
	writeJSON(w, http.StatusOK, CountsResponse{Counts: counts})
}

// HandleGet serves GET /records/{id}.
func (h *RecordsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	record, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// HandlePut serves PUT /records/{id}, creating or replacing the record.
func (h *RecordsHandler) HandlePut(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	var req RecordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	entityType, ok := domain.ParseEntityType(req.EntityType)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown entity type %q", req.EntityType))
		return
	}
	if len(req.Labels) == 0 {
		writeJSONError(w, http.StatusBadRequest, "labels are required")
		return
	}

	record, err := h.repo.Upsert(r.Context(), domain.NewRecord(entityType, req.Labels).WithID(id))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "[RECORDS] upserted", "id", id, "entity_type", entityType)
	writeJSON(w, http.StatusOK, record)
}

// HandleDelete serves DELETE /records/{id}. Records are soft deleted.
func (h *RecordsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "[RECORDS] deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "[RECORDS] request failed", "path", r.URL.Path, "error", err)
	writeJSONError(w, http.StatusInternalServerError, "internal error")
}

func recordID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "id"))
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid record id %q", raw))
		return uuid.Nil, false
	}
	return id, true
}
