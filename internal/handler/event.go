package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/homeboardhq/homeboard/internal/auth"
	"github.com/homeboardhq/homeboard/internal/model"
	"github.com/homeboardhq/homeboard/internal/store"
	"github.com/homeboardhq/homeboard/internal/weekly"
	ws "github.com/homeboardhq/homeboard/internal/websocket"
)

type EventHandler struct {
	eventStore  *store.EventStore
	memberStore *store.FamilyMemberStore
	cache       *weekly.Cache
	hub         *ws.Hub
	logger      *slog.Logger
}

func NewEventHandler(es *store.EventStore, ms *store.FamilyMemberStore, cache *weekly.Cache, hub *ws.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		eventStore:  es,
		memberStore: ms,
		cache:       cache,
		hub:         hub,
		logger:      logger,
	}
}

type eventRequest struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	AssigneeID    *string `json:"assignee_id"`
	StartDatetime string  `json:"start_datetime"`
	EndDatetime   string  `json:"end_datetime"`
	Status        string  `json:"status"`
}

// parseAndValidate normalizes the request and reports the first problem as a
// user-facing message. Empty message means valid.
func (h *EventHandler) parseAndValidate(req *eventRequest, familyID string) (start, end time.Time, msg string) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return start, end, "title is required"
	}
	var err error
	start, err = parseFlexibleTime(req.StartDatetime)
	if err != nil {
		return start, end, "start_datetime must be RFC3339 or YYYY-MM-DD format"
	}
	end, err = parseFlexibleTime(req.EndDatetime)
	if err != nil {
		return start, end, "end_datetime must be RFC3339 or YYYY-MM-DD format"
	}
	if !end.After(start) {
		return start, end, "end_datetime must be after start_datetime"
	}
	if req.AssigneeID != nil {
		member, err := h.memberStore.GetByID(familyID, *req.AssigneeID)
		if err != nil {
			return start, end, "failed to check family member"
		}
		if member == nil {
			return start, end, "assignee not found"
		}
	}
	return start, end, ""
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	start, end, msg := h.parseAndValidate(&req, ac.FamilyID)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	event, err := h.eventStore.Create(ac.FamilyID, req.Title, req.Description, req.AssigneeID, ac.MemberID, start, end)
	if err != nil {
		h.logger.Error("create event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	h.cache.Invalidate(ac.FamilyID)
	h.hub.Broadcast(ws.NewMessage("event", "created", event.ID, nil))
	writeJSON(w, http.StatusCreated, event)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id := r.PathValue("id")

	existing, err := h.eventStore.GetByID(ac.FamilyID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	start, end, msg := h.parseAndValidate(&req, ac.FamilyID)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	status := existing.Status
	if req.Status != "" {
		status = model.EventStatus(req.Status)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
	}

	event, err := h.eventStore.Update(ac.FamilyID, id, req.Title, req.Description, req.AssigneeID, start, end, status)
	if err != nil {
		h.logger.Error("update event", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	h.cache.Invalidate(ac.FamilyID)
	h.hub.Broadcast(ws.NewMessage("event", "updated", event.ID, nil))
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	event, err := h.eventStore.GetByID(ac.FamilyID, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if event == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")
	if startStr == "" || endStr == "" {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}
	start, err := parseFlexibleTime(startStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be RFC3339 or YYYY-MM-DD format")
		return
	}
	end, err := parseFlexibleTime(endStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be RFC3339 or YYYY-MM-DD format")
		return
	}

	events, err := h.eventStore.ListByStartRange(ac.FamilyID, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id := r.PathValue("id")

	existing, err := h.eventStore.GetByID(ac.FamilyID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get event")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	if err := h.eventStore.Delete(ac.FamilyID, id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	h.cache.Invalidate(ac.FamilyID)
	h.hub.Broadcast(ws.NewMessage("event", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
