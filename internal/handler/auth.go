package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/homeboardhq/homeboard/internal/auth"
	"github.com/homeboardhq/homeboard/internal/middleware"
	"github.com/homeboardhq/homeboard/internal/model"
	"github.com/homeboardhq/homeboard/internal/store"
)

// dummyHash absorbs a bcrypt compare when the email is unknown so login
// timing does not reveal which addresses have accounts.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

type AuthHandler struct {
	userStore    *store.UserStore
	sessionStore *store.SessionStore
	familyStore  *store.FamilyStore
	memberStore  *store.FamilyMemberStore
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(us *store.UserStore, ss *store.SessionStore, fs *store.FamilyStore, ms *store.FamilyMemberStore, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		userStore:    us,
		sessionStore: ss,
		familyStore:  fs,
		memberStore:  ms,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	existing, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "an account with that email already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	user, err := h.userStore.Create(req.Email, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	session, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to register")
		return
	}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	if user == nil {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	session, err := h.sessionStore.Create(user.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	h.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok && ac.SessionID != "" {
		if err := h.sessionStore.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	User   *model.User         `json:"user"`
	Family *model.Family       `json:"family,omitempty"`
	Member *model.FamilyMember `json:"member,omitempty"`
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	user, err := h.userStore.GetByID(ac.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}

	resp := meResponse{User: user}
	if ac.FamilyID != "" {
		if family, err := h.familyStore.GetByID(ac.FamilyID); err == nil {
			resp.Family = family
		}
		if member, err := h.memberStore.GetByUserID(ac.FamilyID, ac.UserID); err == nil {
			resp.Member = member
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type familyCreateRequest struct {
	Name       string `json:"name"`
	MemberName string `json:"member_name"`
}

// CreateFamily sets up a family for an account that has none yet. The
// creating user becomes the family's admin member.
func (h *AuthHandler) CreateFamily(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())

	if ac.FamilyID != "" {
		writeError(w, http.StatusConflict, "account already belongs to a family")
		return
	}

	var req familyCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "family name is required")
		return
	}
	req.MemberName = strings.TrimSpace(req.MemberName)
	if req.MemberName == "" {
		if user, err := h.userStore.GetByID(ac.UserID); err == nil && user != nil {
			req.MemberName = strings.SplitN(user.Email, "@", 2)[0]
		} else {
			req.MemberName = "Admin"
		}
	}

	family, err := h.familyStore.Create(req.Name)
	if err != nil {
		h.logger.Error("create family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create family")
		return
	}
	if err := h.userStore.SetFamily(ac.UserID, family.ID); err != nil {
		h.logger.Error("link user to family", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create family")
		return
	}
	member, err := h.memberStore.Create(family.ID, &ac.UserID, req.MemberName, model.RoleAdmin, "blue")
	if err != nil {
		h.logger.Error("create admin member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create family")
		return
	}

	writeJSON(w, http.StatusCreated, meResponse{Family: family, Member: member})
}
