// Package handlers contains the HTTP handler implementations for the crusher
// API: watcher CRUD and results ingestion, campground metadata, and the Slack
// command/action webhooks.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jacobstr/crusher/internal/core"
	"github.com/jacobstr/crusher/internal/notifications"
	"github.com/jacobstr/crusher/internal/types"
	"github.com/jacobstr/crusher/internal/watchers"
)

// WatcherService is the watcher lifecycle contract consumed by the HTTP
// handlers. Mirrors the concrete watchers.Service methods used here.
type WatcherService interface {
	List(ctx context.Context) ([]types.Watcher, error)
	Get(ctx context.Context, watcherID string) (*types.Watcher, error)
	Create(ctx context.Context, input watchers.CreateInput) (*types.Watcher, error)
	Cancel(ctx context.Context, watcherID string) error
	SetSilenced(ctx context.Context, watcherID string, silenced bool) (*types.Watcher, error)
	ApplyResults(ctx context.Context, watcherID string, results []types.Result) (*types.Watcher, notifications.Decision, error)
}

// WatcherHandler manages watcher CRUD and the external results-ingestion
// path. Result writes funnel through the same ApplyResults service the poll
// cycle uses, so the notification policy applies regardless of who computed
// the results.
type WatcherHandler struct {
	service WatcherService
	logger  *slog.Logger
}

// NewWatcherHandler creates a WatcherHandler.
func NewWatcherHandler(service WatcherService, logger *slog.Logger) *WatcherHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WatcherHandler{service: service, logger: logger}
}

// RegisterRoutes mounts the watcher endpoints.
func (h *WatcherHandler) RegisterRoutes(r chi.Router) {
	r.Route("/watchers", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/delete", h.Delete)
		r.Post("/{id}/silence", h.Silence)
		r.Post("/{id}/unsilence", h.Unsilence)
		r.Post("/{id}/results", h.IngestResults)
	})
}

// CreateWatcherRequest is the request body for POST /v1/watchers.
type CreateWatcherRequest struct {
	UserID        string `json:"user_id"`
	CampgroundTag string `json:"campground_tag"`
	Start         string `json:"start"`
	Length        int    `json:"length"`
}

// IngestResultsRequest is the request body for POST /v1/watchers/{id}/results.
// It is the ingestion path for externally computed result sets.
type IngestResultsRequest struct {
	Results []types.Result `json:"results"`
}

// IngestResultsResponse reports what the notification policy decided for the
// ingested set.
type IngestResultsResponse struct {
	Watcher  *types.Watcher `json:"watcher"`
	Notified bool           `json:"notified"`
	Reason   string         `json:"reason"`
}

// List handles GET /v1/watchers.
func (h *WatcherHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if list == nil {
		list = []types.Watcher{}
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: list})
}

// Get handles GET /v1/watchers/{id}.
func (h *WatcherHandler) Get(w http.ResponseWriter, r *http.Request) {
	watcher, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: watcher})
}

// Create handles POST /v1/watchers.
func (h *WatcherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWatcherRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	watcher, err := h.service.Create(r.Context(), watchers.CreateInput{
		UserID:        req.UserID,
		CampgroundTag: req.CampgroundTag,
		Start:         req.Start,
		Length:        req.Length,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: watcher})
}

// Delete handles POST /v1/watchers/{id}/delete.
func (h *WatcherHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]string{"status": "cancelled"}})
}

// Silence handles POST /v1/watchers/{id}/silence.
func (h *WatcherHandler) Silence(w http.ResponseWriter, r *http.Request) {
	h.setSilenced(w, r, true)
}

// Unsilence handles POST /v1/watchers/{id}/unsilence.
func (h *WatcherHandler) Unsilence(w http.ResponseWriter, r *http.Request) {
	h.setSilenced(w, r, false)
}

func (h *WatcherHandler) setSilenced(w http.ResponseWriter, r *http.Request, silenced bool) {
	watcher, err := h.service.SetSilenced(r.Context(), chi.URLParam(r, "id"), silenced)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: watcher})
}

// IngestResults handles POST /v1/watchers/{id}/results. External workers can
// push a freshly computed result set; persistence and the notification
// decision behave exactly as if the in-process poller had produced it.
func (h *WatcherHandler) IngestResults(w http.ResponseWriter, r *http.Request) {
	var req IngestResultsRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	watcher, decision, err := h.service.ApplyResults(r.Context(), chi.URLParam(r, "id"), req.Results)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: IngestResultsResponse{
		Watcher:  watcher,
		Notified: decision.Notify,
		Reason:   decision.Reason,
	}})
}
