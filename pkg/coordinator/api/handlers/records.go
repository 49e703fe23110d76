package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/luchenqun/lucky-dog/internal/logger"
	"github.com/luchenqun/lucky-dog/pkg/coordinator"
	"github.com/luchenqun/lucky-dog/pkg/models"
)

// RecordsHandler serves the unauthenticated candidate read endpoints.
type RecordsHandler struct {
	coord *coordinator.Coordinator
}

// NewRecordsHandler creates a records handler.
func NewRecordsHandler(coord *coordinator.Coordinator) *RecordsHandler {
	return &RecordsHandler{coord: coord}
}

// Count handles GET /count.
func (h *RecordsHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.coord.Store.Count(r.Context())
	if err != nil {
		logger.Error("Failed to count records", "error", err)
		InternalServerError(w, "failed to count records")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// ByID handles GET /records/{id}. The id must be a positive integer.
func (h *RecordsHandler) ByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(w, "id must be a positive integer")
		return
	}

	record, err := h.coord.Store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			NotFound(w, "record not found")
			return
		}
		logger.Error("Failed to get record", "id", id, "error", err)
		InternalServerError(w, "failed to get record")
		return
	}
	WriteJSON(w, http.StatusOK, record)
}

// ByPwd handles GET /records/by-pwd/{pwd}.
func (h *RecordsHandler) ByPwd(w http.ResponseWriter, r *http.Request) {
	pwd := chi.URLParam(r, "pwd")
	if pwd == "" {
		BadRequest(w, "passphrase must not be empty")
		return
	}

	record, err := h.coord.Store.GetByPwd(r.Context(), pwd)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			NotFound(w, "record not found")
			return
		}
		logger.Error("Failed to get record by passphrase", "error", err)
		InternalServerError(w, "failed to get record")
		return
	}
	WriteJSON(w, http.StatusOK, record)
}

// Random handles GET /records/random.
func (h *RecordsHandler) Random(w http.ResponseWriter, r *http.Request) {
	record, err := h.coord.Store.GetRandom(r.Context())
	if err != nil {
		if errors.Is(err, models.ErrNoCandidates) {
			NotFound(w, "no data")
			return
		}
		logger.Error("Failed to get random record", "error", err)
		InternalServerError(w, "failed to get record")
		return
	}
	WriteJSON(w, http.StatusOK, record)
}
