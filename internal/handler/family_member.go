package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/homeboardhq/homeboard/internal/auth"
	"github.com/homeboardhq/homeboard/internal/model"
	"github.com/homeboardhq/homeboard/internal/store"
	"github.com/homeboardhq/homeboard/internal/weekly"
	ws "github.com/homeboardhq/homeboard/internal/websocket"
)

var avatarColors = map[string]bool{
	"red": true, "orange": true, "yellow": true, "green": true,
	"teal": true, "blue": true, "purple": true, "pink": true,
}

type FamilyMemberHandler struct {
	memberStore *store.FamilyMemberStore
	cache       *weekly.Cache
	hub         *ws.Hub
	logger      *slog.Logger
}

func NewFamilyMemberHandler(ms *store.FamilyMemberStore, cache *weekly.Cache, hub *ws.Hub, logger *slog.Logger) *FamilyMemberHandler {
	return &FamilyMemberHandler{memberStore: ms, cache: cache, hub: hub, logger: logger}
}

type memberCreateRequest struct {
	Name        string `json:"name"`
	Role        string `json:"role"`
	AvatarColor string `json:"avatar_color"`
}

// Create adds a profile-only member (no linked login). Admin only.
func (h *FamilyMemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	var req memberCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleMember
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}
	if req.AvatarColor == "" {
		req.AvatarColor = "blue"
	}
	if !avatarColors[req.AvatarColor] {
		writeError(w, http.StatusBadRequest, "invalid avatar color")
		return
	}

	member, err := h.memberStore.Create(ac.FamilyID, nil, req.Name, req.Role, req.AvatarColor)
	if err != nil {
		h.logger.Error("create family member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create family member")
		return
	}

	h.cache.Invalidate(ac.FamilyID)
	h.hub.Broadcast(ws.NewMessage("family_member", "created", member.ID, nil))
	writeJSON(w, http.StatusCreated, member)
}

func (h *FamilyMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	members, err := h.memberStore.List(ac.FamilyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list family members")
		return
	}
	if members == nil {
		members = []model.FamilyMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *FamilyMemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	member, err := h.memberStore.GetByID(ac.FamilyID, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get family member")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "family member not found")
		return
	}
	writeJSON(w, http.StatusOK, member)
}

type memberUpdateRequest struct {
	Name        *string `json:"name"`
	AvatarColor *string `json:"avatar_color"`
	IsActive    *bool   `json:"is_active"`
}

// Update edits profile fields. Members may edit their own profile; admins may
// edit anyone's. Role changes go through SetRole.
func (h *FamilyMemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id := r.PathValue("id")

	if !ac.IsAdmin() && id != ac.MemberID {
		writeError(w, http.StatusForbidden, "can only edit your own profile")
		return
	}

	existing, err := h.memberStore.GetByID(ac.FamilyID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get family member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "family member not found")
		return
	}

	var req memberUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	name := existing.Name
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
	}
	avatarColor := existing.AvatarColor
	if req.AvatarColor != nil {
		avatarColor = *req.AvatarColor
		if !avatarColors[avatarColor] {
			writeError(w, http.StatusBadRequest, "invalid avatar color")
			return
		}
	}
	isActive := existing.IsActive
	if req.IsActive != nil {
		if !ac.IsAdmin() {
			writeError(w, http.StatusForbidden, "only admins can deactivate members")
			return
		}
		isActive = *req.IsActive
	}

	member, err := h.memberStore.Update(ac.FamilyID, id, name, avatarColor, isActive)
	if err != nil {
		h.logger.Error("update family member", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update family member")
		return
	}

	h.cache.Invalidate(ac.FamilyID)
	h.hub.Broadcast(ws.NewMessage("family_member", "updated", member.ID, nil))
	writeJSON(w, http.StatusOK, member)
}

type roleRequest struct {
	Role string `json:"role"`
}

// SetRole promotes or demotes a member. Admin only; an admin cannot demote
// themselves, which guarantees every family keeps at least one admin.
func (h *FamilyMemberHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id := r.PathValue("id")

	if id == ac.MemberID {
		writeError(w, http.StatusBadRequest, "cannot change your own role")
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	member, err := h.memberStore.SetRole(ac.FamilyID, id, req.Role)
	if err != nil {
		h.logger.Error("set member role", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "family member not found")
		return
	}

	h.hub.Broadcast(ws.NewMessage("family_member", "updated", member.ID, nil))
	writeJSON(w, http.StatusOK, member)
}

func (h *FamilyMemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	id := r.PathValue("id")

	if id == ac.MemberID {
		writeError(w, http.StatusBadRequest, "cannot remove yourself from the family")
		return
	}

	existing, err := h.memberStore.GetByID(ac.FamilyID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get family member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "family member not found")
		return
	}

	if err := h.memberStore.Delete(ac.FamilyID, id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete family member")
		return
	}

	h.cache.Invalidate(ac.FamilyID)
	h.hub.Broadcast(ws.NewMessage("family_member", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
