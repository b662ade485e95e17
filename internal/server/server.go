package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/homeboardhq/homeboard/internal/handler"
	"github.com/homeboardhq/homeboard/internal/middleware"
	"github.com/homeboardhq/homeboard/internal/push"
	"github.com/homeboardhq/homeboard/internal/store"
	"github.com/homeboardhq/homeboard/internal/weekly"
	ws "github.com/homeboardhq/homeboard/internal/websocket"
)

type Config struct {
	SecureCookie    bool
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	CacheFreshFor   time.Duration
	CacheEvictAfter time.Duration
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	cache        *weekly.Cache
	dashboardH   *handler.DashboardHandler
	taskH        *handler.TaskHandler
	eventH       *handler.EventHandler
	memberH      *handler.FamilyMemberHandler
	authH        *handler.AuthHandler
	pushH        *handler.PushHandler
	sessionStore *store.SessionStore
	userStore    *store.UserStore
	memberStore  *store.FamilyMemberStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	taskStore := store.NewTaskStore(db)
	eventStore := store.NewEventStore(db)
	memberStore := store.NewFamilyMemberStore(db)
	userStore := store.NewUserStore(db)
	familyStore := store.NewFamilyStore(db)
	sessionStore := store.NewSessionStore(db)
	pushStore := store.NewPushStore(db)

	boundary := store.NewBoundary(taskStore, eventStore, memberStore)
	fetcher := weekly.NewFetcher(boundary)
	cache := weekly.NewCache(fetcher, weekly.Config{
		FreshFor:   cfg.CacheFreshFor,
		EvictAfter: cfg.CacheEvictAfter,
	}, logger.With("component", "cache"))
	mutator := weekly.NewMutator(cache, boundary, logger.With("component", "mutator"))

	pushLogger := logger.With("component", "push")
	var pushSvc *push.Service
	var notifier *push.Notifier
	var pushH *handler.PushHandler
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
		pushH = handler.NewPushHandler(pushSvc, pushStore, pushLogger)
	}
	// Notifier tolerates a nil service by doing nothing, so handlers can
	// call it unconditionally.
	notifier = push.NewNotifier(pushSvc, pushStore, pushLogger)

	return &Server{
		db:           db,
		hub:          hub,
		cache:        cache,
		dashboardH:   handler.NewDashboardHandler(cache, logger.With("component", "dashboard")),
		taskH:        handler.NewTaskHandler(mutator, cache, taskStore, memberStore, hub, notifier, logger.With("component", "task")),
		eventH:       handler.NewEventHandler(eventStore, memberStore, cache, hub, logger.With("component", "event")),
		memberH:      handler.NewFamilyMemberHandler(memberStore, cache, hub, logger.With("component", "family_member")),
		authH:        handler.NewAuthHandler(userStore, sessionStore, familyStore, memberStore, cfg.SecureCookie, logger.With("component", "auth")),
		pushH:        pushH,
		sessionStore: sessionStore,
		userStore:    userStore,
		memberStore:  memberStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// Cache returns the dashboard cache for sweep tasks.
func (s *Server) Cache() *weekly.Cache {
	return s.cache
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Close releases long-lived resources held by handlers.
func (s *Server) Close() {
	s.dashboardH.Close()
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Authenticated routes that work before the account has a family
	authedMux := http.NewServeMux()
	authedMux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	authedMux.HandleFunc("GET /api/auth/me", s.authH.Me)
	authedMux.HandleFunc("POST /api/family", s.authH.CreateFamily)

	// Family-scoped routes
	familyMux := http.NewServeMux()
	s.registerFamilyRoutes(familyMux)
	authedMux.Handle("/", middleware.RequireFamily(familyMux))

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore, s.memberStore)
	outerMux.Handle("/", authMiddleware(authedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerFamilyRoutes(mux *http.ServeMux) {
	// Weekly dashboard
	mux.HandleFunc("GET /api/dashboard/week", s.dashboardH.Week)
	mux.HandleFunc("GET /api/dashboard/title", s.dashboardH.Title)
	mux.HandleFunc("POST /api/dashboard/week/previous", s.dashboardH.Previous)
	mux.HandleFunc("POST /api/dashboard/week/next", s.dashboardH.Next)
	mux.HandleFunc("POST /api/dashboard/week/current", s.dashboardH.Current)
	mux.HandleFunc("POST /api/dashboard/week/goto", s.dashboardH.GoTo)

	// Task API routes
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)

	// Event API routes
	mux.HandleFunc("POST /api/events", s.eventH.Create)
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/events/{id}", s.eventH.Update)
	mux.HandleFunc("DELETE /api/events/{id}", s.eventH.Delete)

	// Family member API routes
	mux.HandleFunc("GET /api/family-members", s.memberH.List)
	mux.HandleFunc("GET /api/family-members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/family-members/{id}", s.memberH.Update)
	mux.Handle("POST /api/family-members", middleware.RequireAdmin(http.HandlerFunc(s.memberH.Create)))
	mux.Handle("PUT /api/family-members/{id}/role", middleware.RequireAdmin(http.HandlerFunc(s.memberH.SetRole)))
	mux.Handle("DELETE /api/family-members/{id}", middleware.RequireAdmin(http.HandlerFunc(s.memberH.Delete)))

	// Push notification API routes
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDPublicKey)
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handler(s.hub))
}
