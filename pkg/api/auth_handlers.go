package api

import (
	"errors"
	"net/http"

	"github.com/slovar/slovar/pkg/audit"
	"github.com/slovar/slovar/pkg/auth"
	"github.com/slovar/slovar/pkg/httputil"
)

// login handles POST /api/login
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := s.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			s.recordAudit(r, audit.EventTypeLoginFailed, nil, nil, req.Username)
			// Same response as a wrong password so usernames cannot be probed.
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "incorrect username or password")
			return
		}
		s.logger.WithError(err).Error("failed to look up user during login")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := auth.VerifyPassword(user.HashedPassword, req.Password); err != nil {
		s.recordAudit(r, audit.EventTypeLoginFailed, nil, &user.ID, req.Username)
		httputil.WriteErrorMessage(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.WithError(err).Error("failed to issue authentication token")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.recordAudit(r, audit.EventTypeLogin, &user.ID, nil, "")
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

// myPermissions handles GET /api/me/permissions
func (s *Server) myPermissions(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		httputil.WriteErrorMessage(w, http.StatusUnauthorized, "authentication required")
		return
	}

	permissions, err := s.resolver.ResolvePermissions(r.Context(), identity.UserID)
	if err != nil {
		s.logger.WithError(err).Error("failed to resolve permissions")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string][]string{
		"permissions": permissions.Names(),
	})
}
