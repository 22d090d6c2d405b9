package api

import (
	"sync"
	"time"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// defaultStaleAfter marks a snapshot stale once the refresh job should
// have replaced it several times over.
const defaultStaleAfter = 15 * time.Minute

// Store holds the latest completed ranking snapshot for the API and
// websocket layers. The analyzer itself keeps no state; this is the
// only mutable shared state in the process.
// SSOT: snapshot caching happens in this struct only
type Store struct {
	mu        sync.RWMutex
	latest    contracts.RankedResult
	hasResult bool
	updatedAt time.Time

	staleAfter time.Duration
	now        func() time.Time
	logger     *logger.Logger
}

// NewStore creates an empty snapshot store. A non-positive staleAfter
// falls back to the default.
func NewStore(staleAfter time.Duration, log *logger.Logger) *Store {
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	return &Store{
		staleAfter: staleAfter,
		now:        time.Now,
		logger:     log,
	}
}

// Set replaces the stored snapshot
func (s *Store) Set(result contracts.RankedResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = result
	s.hasResult = true
	s.updatedAt = s.now()

	s.logger.WithFields(map[string]interface{}{
		"session": result.Session.DateKey(),
		"entries": len(result.Entries),
		"source":  result.Provenance.Source,
	}).Debug("Stored ranking snapshot")
}

// Latest returns the stored snapshot and whether one exists
func (s *Store) Latest() (contracts.RankedResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest, s.hasResult
}

// IsStale reports whether the snapshot is older than the staleness
// window. An empty store is always stale.
func (s *Store) IsStale() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasResult {
		return true
	}
	return s.now().Sub(s.updatedAt) > s.staleAfter
}

// StoreStats describes the store for status endpoints
type StoreStats struct {
	HasResult bool      `json:"has_result"`
	Stale     bool      `json:"stale"`
	Entries   int       `json:"entries"`
	Session   string    `json:"session,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Stats returns a point-in-time description of the store
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{
		HasResult: s.hasResult,
		Stale:     !s.hasResult || s.now().Sub(s.updatedAt) > s.staleAfter,
	}
	if s.hasResult {
		stats.Entries = len(s.latest.Entries)
		stats.Session = s.latest.Session.DateKey()
		stats.UpdatedAt = s.updatedAt
	}
	return stats
}
