package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nixflix/internal/models"
	"github.com/desertthunder/nixflix/internal/tasks"
)

// RunLister reads the run journal. [repositories.SyncRunRepository] implements it.
type RunLister interface {
	List(criteria map[string]any) ([]*models.SyncRun, error)
}

// Status tracks the poller's most recent attempt. Safe for concurrent use.
type Status struct {
	mu       sync.RWMutex
	attempts int
	failures int
	last     *tasks.SyncResult
}

// Observe records an attempt. It matches [tasks.Poller.OnResult].
func (s *Status) Observe(result *tasks.SyncResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts++
	if result.Outcome == models.OutcomeFailed {
		s.failures++
	}
	s.last = result
}

// Snapshot returns the attempt counters and the last result, which is nil before the first attempt.
func (s *Status) Snapshot() (attempts, failures int, last *tasks.SyncResult) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attempts, s.failures, s.last
}

// HealthHandler serves the poller state and the latest journal entry as JSON.
type HealthHandler struct {
	runs    RunLister
	status  *Status
	started time.Time
	now     func() time.Time
}

// NewHealthHandler creates a [HealthHandler]. runs may be nil when the journal is disabled.
func NewHealthHandler(status *Status, runs RunLister) *HealthHandler {
	if status == nil {
		status = &Status{}
	}
	return &HealthHandler{
		runs:    runs,
		status:  status,
		started: time.Now(),
		now:     time.Now,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *HealthHandler) Routes() []string {
	return []string{"/health", "/runs/latest"}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	Attempts    int       `json:"attempts"`
	Failures    int       `json:"failures"`
	LastOutcome string    `json:"last_outcome,omitempty"`
	LastSummary string    `json:"last_summary,omitempty"`
	LastAt      time.Time `json:"last_at,omitzero"`
}

// RunResponse is the body of GET /runs/latest.
type RunResponse struct {
	ID            string    `json:"id"`
	Sequence      int       `json:"sequence"`
	Playlist      string    `json:"playlist"`
	Album         string    `json:"album"`
	Outcome       string    `json:"outcome"`
	Reason        string    `json:"reason,omitempty"`
	Forced        bool      `json:"forced"`
	Mutated       bool      `json:"mutated"`
	ItemsInserted int       `json:"items_inserted"`
	ItemsDeleted  int       `json:"items_deleted"`
	InsertCalls   int       `json:"insert_calls"`
	StartedAt     time.Time `json:"started_at"`
	CompletedAt   time.Time `json:"completed_at"`
}

// ServeHTTP dispatches on the request path.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/health":
		h.health(w)
	case "/runs/latest":
		h.latestRun(w)
	default:
		http.NotFound(w, r)
	}
}

// health reports "degraded" when the most recent attempt failed.
func (h *HealthHandler) health(w http.ResponseWriter) {
	attempts, failures, last := h.status.Snapshot()

	resp := HealthResponse{
		Status:   "ok",
		Uptime:   h.now().Sub(h.started).Round(time.Second).String(),
		Attempts: attempts,
		Failures: failures,
	}
	if last != nil {
		resp.LastOutcome = string(last.Outcome)
		resp.LastSummary = last.Summary()
		resp.LastAt = last.CompletedAt
		if last.Outcome == models.OutcomeFailed {
			resp.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *HealthHandler) latestRun(w http.ResponseWriter) {
	if h.runs == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "journal disabled"})
		return
	}

	runs, err := h.runs.List(map[string]any{"limit": 1})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if len(runs) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no sync runs recorded"})
		return
	}

	run := runs[0]
	writeJSON(w, http.StatusOK, RunResponse{
		ID:            run.ID(),
		Sequence:      run.Sequence,
		Playlist:      run.Playlist,
		Album:         run.Album,
		Outcome:       string(run.Outcome),
		Reason:        run.Reason,
		Forced:        run.Forced,
		Mutated:       run.Mutated,
		ItemsInserted: run.ItemsInserted,
		ItemsDeleted:  run.ItemsDeleted,
		InsertCalls:   run.InsertCalls,
		StartedAt:     run.StartedAt,
		CompletedAt:   run.CompletedAt,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// NewHealthRouter builds the router served next to the poller.
func NewHealthRouter(status *Status, runs RunLister, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(RecoverMiddleware(logger), LoggingMiddleware(logger))
	router.Handler(NewHealthHandler(status, runs))
	return router
}
