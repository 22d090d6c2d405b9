package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// defaultTopN bounds /ranking/top when no n parameter is given
const defaultTopN = 10

// ResultSource supplies the latest stored ranking snapshot
type ResultSource interface {
	Latest() (contracts.RankedResult, bool)
	IsStale() bool
}

// Refresher runs a ranking refresh on demand
type Refresher interface {
	Refresh(ctx context.Context) (contracts.RankedResult, error)
}

// RankingHandler handles the ranking API endpoints
// SSOT: ranking HTTP responses are shaped in this struct only
type RankingHandler struct {
	source    ResultSource
	refresher Refresher
	logger    *logger.Logger
}

// NewRankingHandler creates a new ranking handler
func NewRankingHandler(source ResultSource, refresher Refresher, log *logger.Logger) *RankingHandler {
	return &RankingHandler{
		source:    source,
		refresher: refresher,
		logger:    log,
	}
}

// GetLatest returns the full stored ranking
// GET /api/v1/ranking
func (h *RankingHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	result, ok := h.source.Latest()
	if !ok {
		respondError(w, http.StatusNotFound, "no ranking available yet")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.resultPayload(result, result.Entries),
	})
}

// GetTop returns the first n entries of the stored ranking
// GET /api/v1/ranking/top?n=10
func (h *RankingHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	n := defaultTopN
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	result, ok := h.source.Latest()
	if !ok {
		respondError(w, http.StatusNotFound, "no ranking available yet")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.resultPayload(result, result.Top(n)),
	})
}

// Refresh runs a new analysis and returns the fresh ranking
// POST /api/v1/refresh
func (h *RankingHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		respondError(w, http.StatusServiceUnavailable, "refresh not available")
		return
	}

	result, err := h.refresher.Refresh(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Manual refresh failed")
		respondError(w, http.StatusInternalServerError, "refresh failed: "+err.Error())
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"session": result.Session.DateKey(),
		"entries": len(result.Entries),
	}).Info("Manual refresh completed")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.resultPayload(result, result.Entries),
	})
}

// resultPayload shapes one ranking response body
func (h *RankingHandler) resultPayload(result contracts.RankedResult, entries []contracts.RankedEntry) map[string]interface{} {
	return map[string]interface{}{
		"session":      result.Session.DateKey(),
		"count":        len(entries),
		"entries":      entries,
		"provenance":   result.Provenance,
		"generated_at": result.GeneratedAt,
		"stale":        h.source.IsStale(),
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
