package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/slovar/slovar/pkg/audit"
	"github.com/slovar/slovar/pkg/auth"
	"github.com/slovar/slovar/pkg/observability"
	"github.com/slovar/slovar/pkg/rbac"
)

// Server represents our API server
type Server struct {
	router   *mux.Router
	users    *auth.UserStore
	tokens   *auth.TokenManager
	resolver *rbac.Resolver
	trail    *audit.Logger
	logger   *logrus.Logger
}

// NewServer creates a new API server. trail may be nil to disable audit
// recording.
func NewServer(users *auth.UserStore, tokens *auth.TokenManager, resolver *rbac.Resolver, trail *audit.Logger, logger *logrus.Logger) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		users:    users,
		tokens:   tokens,
		resolver: resolver,
		trail:    trail,
		logger:   logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.Use(mux.MiddlewareFunc(observability.HTTPMetricsMiddleware))
	s.router.Use(mux.MiddlewareFunc(auth.Middleware(s.tokens, logrus.NewEntry(s.logger))))

	s.router.HandleFunc("/api/login", s.login).Methods("POST")
	s.router.HandleFunc("/api/me/permissions", s.myPermissions).Methods("GET")

	// Role management on other users' accounts
	s.router.Handle("/api/users/{id}/roles",
		s.requirePermission(rbac.PermissionUserAnyRead, s.getUserRoles)).Methods("GET")
	s.router.Handle("/api/users/{id}/roles",
		s.requirePermission(rbac.PermissionUserAnyWrite, s.addUserRoles)).Methods("POST")
	s.router.Handle("/api/users/{id}/roles",
		s.requirePermission(rbac.PermissionUserAnyWrite, s.removeUserRoles)).Methods("DELETE")
}

func (s *Server) requirePermission(permission rbac.Permission, handler http.HandlerFunc) http.Handler {
	return rbac.RequirePermission(s.resolver, permission)(handler)
}

func (s *Server) recordAudit(r *http.Request, eventType audit.EventType, actorID, targetID *uuid.UUID, detail string) {
	if s.trail != nil {
		s.trail.Record(r.Context(), eventType, actorID, targetID, detail)
	}
}

// Router returns the configured handler for mounting on an HTTP server.
func (s *Server) Router() http.Handler {
	return s.router
}
