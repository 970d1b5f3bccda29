package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler serves the train read API over a Repository.
type Handler struct {
	repo Repository
}

// NewHandler creates a handler with the given repository.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// GetTrainsResponse is the JSON response structure for GET /api/trains
type GetTrainsResponse struct {
	Trains []Train   `json:"trains"`
	Count  int       `json:"count"`
	Now    time.Time `json:"now"`
}

// GetDelayStatsResponse is the JSON response structure for GET /api/stats/delays
type GetDelayStatsResponse struct {
	Stats []DelayStat `json:"stats"`
	Count int         `json:"count"`
}

// ErrorResponse is the JSON error response structure
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = map[string]interface{}{"internal": err.Error()}
	}
	writeJSON(w, status, resp)
}

// GetAllTrains handles GET /api/trains
func (h *Handler) GetAllTrains(w http.ResponseWriter, r *http.Request) {
	trains, err := h.repo.GetAllTrains(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve trains", err)
		return
	}

	writeJSON(w, http.StatusOK, GetTrainsResponse{
		Trains: trains,
		Count:  len(trains),
		Now:    time.Now().UTC(),
	})
}

// GetTrainByKey handles GET /api/trains/{trainKey}
func (h *Handler) GetTrainByKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "trainKey")
	if key == "" {
		writeError(w, http.StatusBadRequest, "trainKey parameter is required", nil)
		return
	}

	train, err := h.repo.GetTrainByKey(r.Context(), key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Train not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to retrieve train", err)
		return
	}

	writeJSON(w, http.StatusOK, train)
}

// GetDelayStats handles GET /api/stats/delays with an optional
// ?category= filter.
func (h *Handler) GetDelayStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetDelayStats(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve delay stats", err)
		return
	}

	writeJSON(w, http.StatusOK, GetDelayStatsResponse{Stats: stats, Count: len(stats)})
}

// Health handles GET /health with a storage connectivity probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.repo.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "error",
			"database":  "disconnected",
			"timestamp": time.Now().UTC(),
			"error":     err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"database":  "connected",
		"timestamp": time.Now().UTC(),
	})
}
