package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rpattn/recordsearch/internal/domain"
)

// Handler exposes record import as an HTTP endpoint.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a POST endpoint.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	req := Request{
		FileName: header.Filename,
		Data:     file,
	}

	if raw := strings.TrimSpace(r.FormValue("entityType")); raw != "" {
		entityType, ok := domain.ParseEntityType(raw)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown entity type %q", raw), http.StatusBadRequest)
			return
		}
		req.EntityType = entityType
	}

	if raw := strings.TrimSpace(r.FormValue("headerRowIndex")); raw != "" {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid header row index: %v", err), http.StatusBadRequest)
			return
		}
		req.HeaderRowIndex = &idx
	}

	summary, err := h.service.Import(r.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, ErrUnsupportedFormat) && !errors.Is(err, domain.ErrUnknownEntityType) && summary.TotalRows > 0 {
			status = http.StatusInternalServerError
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
