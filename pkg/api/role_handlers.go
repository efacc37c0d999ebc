package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/slovar/slovar/pkg/audit"
	"github.com/slovar/slovar/pkg/auth"
	"github.com/slovar/slovar/pkg/httputil"
	"github.com/slovar/slovar/pkg/rbac"
)

// resolveTargetUser parses the {id} path variable and confirms the account
// exists. It writes the error response itself and reports success through
// the second return value.
func (s *Server) resolveTargetUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "invalid user id")
		return uuid.UUID{}, false
	}

	if _, err := s.users.GetByID(r.Context(), userID); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			httputil.WriteErrorMessage(w, http.StatusNotFound, "user not found")
			return uuid.UUID{}, false
		}
		s.logger.WithError(err).Error("failed to look up user")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
		return uuid.UUID{}, false
	}

	return userID, true
}

// getUserRoles handles GET /api/users/{id}/roles
func (s *Server) getUserRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.resolveTargetUser(w, r)
	if !ok {
		return
	}

	roles, err := s.resolver.ResolveRoles(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).Error("failed to resolve user roles")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"roles": roles.Names()})
}

// addUserRoles handles POST /api/users/{id}/roles
func (s *Server) addUserRoles(w http.ResponseWriter, r *http.Request) {
	s.modifyUserRoles(w, r, audit.EventTypeRoleGrant, s.resolver.GrantRoles)
}

// removeUserRoles handles DELETE /api/users/{id}/roles
func (s *Server) removeUserRoles(w http.ResponseWriter, r *http.Request) {
	s.modifyUserRoles(w, r, audit.EventTypeRoleRevoke, s.resolver.RevokeRoles)
}

func (s *Server) modifyUserRoles(
	w http.ResponseWriter,
	r *http.Request,
	eventType audit.EventType,
	modify func(context.Context, uuid.UUID, rbac.RoleSet) (rbac.RoleSet, error),
) {
	userID, ok := s.resolveTargetUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Roles []string `json:"roles"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Roles) == 0 {
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "at least one role is required")
		return
	}

	roles, err := rbac.RoleSetFromNames(req.Roles)
	if err != nil {
		var unknown *rbac.UnknownRoleNameError
		if errors.As(err, &unknown) {
			httputil.WriteErrorMessage(w, http.StatusBadRequest, "unknown role "+unknown.Name)
			return
		}
		httputil.WriteErrorMessage(w, http.StatusBadRequest, "invalid roles")
		return
	}

	updated, err := modify(r.Context(), userID, roles)
	if err != nil {
		s.logger.WithError(err).Error("role mutation failed")
		httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var actorID *uuid.UUID
	if identity := auth.IdentityFromContext(r.Context()); identity != nil {
		actorID = &identity.UserID
	}
	s.recordAudit(r, eventType, actorID, &userID, strings.Join(roles.Names(), ","))

	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"roles": updated.Names()})
}
