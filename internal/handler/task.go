package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/homeboardhq/homeboard/internal/auth"
	"github.com/homeboardhq/homeboard/internal/model"
	"github.com/homeboardhq/homeboard/internal/push"
	"github.com/homeboardhq/homeboard/internal/store"
	"github.com/homeboardhq/homeboard/internal/weekly"
	ws "github.com/homeboardhq/homeboard/internal/websocket"
)

type TaskHandler struct {
	mutator     *weekly.Mutator
	cache       *weekly.Cache
	taskStore   *store.TaskStore
	memberStore *store.FamilyMemberStore
	hub         *ws.Hub
	notifier    *push.Notifier
	logger      *slog.Logger
}

func NewTaskHandler(mutator *weekly.Mutator, cache *weekly.Cache, ts *store.TaskStore, ms *store.FamilyMemberStore, hub *ws.Hub, notifier *push.Notifier, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		mutator:     mutator,
		cache:       cache,
		taskStore:   ts,
		memberStore: ms,
		hub:         hub,
		notifier:    notifier,
		logger:      logger,
	}
}

type taskCreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	AssigneeID  *string `json:"assignee_id"`
	DueDate     *string `json:"due_date"`
	Category    string  `json:"category"`
	Priority    string  `json:"priority"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req taskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	in := model.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		CreatorID:   ac.MemberID,
		Category:    model.CategoryTask,
		Priority:    model.PriorityMedium,
	}
	if req.Category != "" {
		in.Category = model.TaskCategory(req.Category)
		if in.Category != model.CategoryTask && in.Category != model.CategoryEvent {
			writeError(w, http.StatusBadRequest, "invalid category")
			return
		}
	}
	if req.Priority != "" {
		in.Priority = model.Priority(req.Priority)
		if !in.Priority.Valid() {
			writeError(w, http.StatusBadRequest, "invalid priority")
			return
		}
	}
	if req.DueDate != nil {
		due, err := parseFlexibleTime(*req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "due_date must be RFC3339 or YYYY-MM-DD format")
			return
		}
		in.DueDate = &due
	}
	if req.AssigneeID != nil {
		if !h.assigneeExists(w, ac.FamilyID, *req.AssigneeID) {
			return
		}
		in.AssigneeID = req.AssigneeID
	}

	task, err := h.mutator.CreateTask(r.Context(), ac.FamilyID, in)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}

	h.hub.Broadcast(ws.NewMessage("task", "created", task.ID, nil))
	h.notifier.TaskAssigned(task)
	writeJSON(w, http.StatusCreated, task)
}

type taskUpdateRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	AssigneeID      *string `json:"assignee_id"`
	ClearAssignee   bool    `json:"clear_assignee"`
	DueDate         *string `json:"due_date"`
	ClearDueDate    bool    `json:"clear_due_date"`
	Status          *string `json:"status"`
	Priority        *string `json:"priority"`
	CompletedAt     *string `json:"completed_at"`
	ExpectedVersion *int64  `json:"expected_version"`
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id := r.PathValue("id")

	var req taskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ch := model.TaskChanges{
		Description:     req.Description,
		ClearAssignee:   req.ClearAssignee,
		ClearDueDate:    req.ClearDueDate,
		ExpectedVersion: req.ExpectedVersion,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			writeError(w, http.StatusBadRequest, "title cannot be empty")
			return
		}
		ch.Title = &title
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		ch.Status = &status
	}
	if req.Priority != nil {
		priority := model.Priority(*req.Priority)
		if !priority.Valid() {
			writeError(w, http.StatusBadRequest, "invalid priority")
			return
		}
		ch.Priority = &priority
	}
	if req.DueDate != nil {
		due, err := parseFlexibleTime(*req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "due_date must be RFC3339 or YYYY-MM-DD format")
			return
		}
		ch.DueDate = &due
	}
	if req.CompletedAt != nil {
		completed, err := parseFlexibleTime(*req.CompletedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "completed_at must be RFC3339 or YYYY-MM-DD format")
			return
		}
		ch.CompletedAt = &completed
	}
	if req.AssigneeID != nil && !req.ClearAssignee {
		if !h.assigneeExists(w, ac.FamilyID, *req.AssigneeID) {
			return
		}
		ch.AssigneeID = req.AssigneeID
	}

	task, err := h.mutator.UpdateTask(r.Context(), ac.FamilyID, id, ch)
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			writeError(w, http.StatusConflict, "task was modified by someone else")
			return
		}
		h.logger.Error("update task", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	h.hub.Broadcast(ws.NewMessage("task", "updated", task.ID, nil))
	if ch.AssigneeID != nil {
		h.notifier.TaskAssigned(task)
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	task, err := h.taskStore.GetByID(ac.FamilyID, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
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

	tasks, err := h.taskStore.ListByDueRange(ac.FamilyID, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id := r.PathValue("id")

	existing, err := h.taskStore.GetByID(ac.FamilyID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	if err := h.taskStore.Delete(ac.FamilyID, id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}

	h.cache.Invalidate(ac.FamilyID)
	h.hub.Broadcast(ws.NewMessage("task", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) assigneeExists(w http.ResponseWriter, familyID, memberID string) bool {
	member, err := h.memberStore.GetByID(familyID, memberID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to check family member")
		return false
	}
	if member == nil {
		writeError(w, http.StatusBadRequest, "assignee not found")
		return false
	}
	return true
}
