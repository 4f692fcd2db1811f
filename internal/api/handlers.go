// Package api exposes the run history database over a small read-only HTTP
// API (the -serve mode). The batch pipeline itself never depends on it.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/batchscribe/internal/storage/sqlite"
	"github.com/yegors/batchscribe/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	runStorage *sqlite.RunStorage
	logger     *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(runStorage *sqlite.RunStorage, log *logger.Logger) *Handler {
	return &Handler{
		runStorage: runStorage,
		logger:     log.Named("api-handler"),
	}
}

// GetRuns returns batch runs, most recent first, with pagination
func (h *Handler) GetRuns(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePaginationParams(r)

	runs, err := h.runStorage.GetRuns(limit, offset)
	if err != nil {
		h.logger.Error("Failed to retrieve runs", logger.Error(err))
		http.Error(w, "Failed to retrieve runs", http.StatusInternalServerError)
		return
	}

	response := map[string]any{
		"timestamp": time.Now(),
		"count":     len(runs),
		"runs":      runs,
	}
	WriteJSON(w, http.StatusOK, response)
}

// GetRun returns a single batch run by ID
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRunID(w, r)
	if !ok {
		return
	}

	run, err := h.runStorage.GetRun(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to retrieve run", logger.Error(err))
		http.Error(w, "Failed to retrieve run", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// GetRunFiles returns the per-file outcomes of a run in discovery order
func (h *Handler) GetRunFiles(w http.ResponseWriter, r *http.Request) {
	id, ok := parseRunID(w, r)
	if !ok {
		return
	}

	files, err := h.runStorage.GetRunFiles(id)
	if err != nil {
		h.logger.Error("Failed to retrieve run files", logger.Error(err))
		http.Error(w, "Failed to retrieve run files", http.StatusInternalServerError)
		return
	}

	response := map[string]any{
		"timestamp": time.Now(),
		"run_id":    id,
		"count":     len(files),
		"files":     files,
	}
	WriteJSON(w, http.StatusOK, response)
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Helper functions

func parseRunID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid run ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func parsePaginationParams(r *http.Request) (int, int) {
	limit := 100 // Default limit
	offset := 0  // Default offset

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}
