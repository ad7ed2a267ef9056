package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jacobstr/crusher/internal/core"
	"github.com/jacobstr/crusher/internal/types"
)

// CampgroundHandler serves the campground directory metadata endpoints.
type CampgroundHandler struct {
	directory types.CampgroundDirectory
	logger    *slog.Logger
}

// NewCampgroundHandler creates a CampgroundHandler.
func NewCampgroundHandler(directory types.CampgroundDirectory, logger *slog.Logger) *CampgroundHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CampgroundHandler{directory: directory, logger: logger}
}

// RegisterRoutes mounts the metadata endpoints.
func (h *CampgroundHandler) RegisterRoutes(r chi.Router) {
	r.Route("/meta", func(r chi.Router) {
		r.Get("/campgrounds", h.ListCampgrounds)
		r.Get("/tags", h.ListTags)
	})
}

// ListCampgrounds handles GET /v1/meta/campgrounds. An optional ?tag= query
// parameter filters to a single tag group.
func (h *CampgroundHandler) ListCampgrounds(w http.ResponseWriter, r *http.Request) {
	var (
		campgrounds []types.Campground
		err         error
	)

	if tag := r.URL.Query().Get("tag"); tag != "" {
		campgrounds, err = h.directory.ByTag(r.Context(), tag)
	} else {
		campgrounds, err = h.directory.List(r.Context())
	}
	if err != nil {
		core.Error(w, r, err)
		return
	}

	if campgrounds == nil {
		campgrounds = []types.Campground{}
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: campgrounds})
}

// ListTags handles GET /v1/meta/tags.
func (h *CampgroundHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.directory.Tags(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: tags})
}
