package handler

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/homeboardhq/homeboard/internal/auth"
	"github.com/homeboardhq/homeboard/internal/weekly"
)

// DashboardHandler serves the weekly dashboard view. Each family gets one
// shared Navigator so week position and prefetch are coordinated across
// devices on the same household.
type DashboardHandler struct {
	cache  *weekly.Cache
	logger *slog.Logger

	mu         sync.Mutex
	navigators map[string]*weekly.Navigator
}

func NewDashboardHandler(cache *weekly.Cache, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		cache:      cache,
		logger:     logger,
		navigators: make(map[string]*weekly.Navigator),
	}
}

func (h *DashboardHandler) navigator(familyID string) *weekly.Navigator {
	h.mu.Lock()
	defer h.mu.Unlock()
	nav, ok := h.navigators[familyID]
	if !ok {
		nav = weekly.NewNavigator(h.cache, familyID)
		h.navigators[familyID] = nav
	}
	return nav
}

// Close releases every family's navigator. Called on server shutdown.
func (h *DashboardHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, nav := range h.navigators {
		nav.Close()
		delete(h.navigators, id)
	}
}

type dashboardResponse struct {
	Data      *weekly.Dashboard `json:"data"`
	Error     string            `json:"error,omitempty"`
	WeekTitle string            `json:"week_title"`
}

func (h *DashboardHandler) respond(w http.ResponseWriter, r *http.Request, nav *weekly.Navigator) {
	data, err := nav.Fetch(r.Context())
	resp := dashboardResponse{Data: data, WeekTitle: nav.Title()}
	if err != nil {
		// Stale data still renders; the client shows it alongside the error.
		h.logger.Warn("fetch dashboard", "error", err)
		resp.Error = "failed to refresh dashboard"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Week serves the navigator's current week, or the week containing ?date=
// without moving the navigator.
func (h *DashboardHandler) Week(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	nav := h.navigator(ac.FamilyID)

	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		at, err := parseFlexibleTime(dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be RFC3339 or YYYY-MM-DD format")
			return
		}
		data, err := h.cache.Get(r.Context(), ac.FamilyID, at)
		resp := dashboardResponse{Data: data, WeekTitle: weekly.WeekTitle(at, time.Now())}
		if err != nil {
			h.logger.Warn("fetch dashboard", "error", err)
			resp.Error = "failed to refresh dashboard"
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	h.respond(w, r, nav)
}

// Title returns the display title for the week containing ?date=, or the
// navigator's current week when no date is given. It never fetches data.
func (h *DashboardHandler) Title(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		at, err := parseFlexibleTime(dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be RFC3339 or YYYY-MM-DD format")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"week_title": weekly.WeekTitle(at, time.Now())})
		return
	}

	nav := h.navigator(ac.FamilyID)
	writeJSON(w, http.StatusOK, map[string]string{"week_title": nav.Title()})
}

func (h *DashboardHandler) Previous(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	nav := h.navigator(ac.FamilyID)
	nav.Previous()
	h.respond(w, r, nav)
}

func (h *DashboardHandler) Next(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	nav := h.navigator(ac.FamilyID)
	nav.Next()
	h.respond(w, r, nav)
}

// Current jumps back to the week containing today.
func (h *DashboardHandler) Current(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	nav := h.navigator(ac.FamilyID)
	nav.Current()
	h.respond(w, r, nav)
}

// GoTo moves the navigator to the week containing the requested date.
func (h *DashboardHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		writeError(w, http.StatusBadRequest, "date query parameter is required")
		return
	}
	at, err := parseFlexibleTime(dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be RFC3339 or YYYY-MM-DD format")
		return
	}

	nav := h.navigator(ac.FamilyID)
	nav.GoTo(at)
	h.respond(w, r, nav)
}
