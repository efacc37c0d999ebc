package rbac

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Resolver is the single choke point for authorization decisions. HTTP
// handlers never implement permission logic themselves; they ask the
// resolver and translate its typed errors into status codes.
type Resolver struct {
	store  *Store
	cache  PermissionCache
	logger *logrus.Entry
}

// NewResolver creates a resolver over the given store. cache may be nil, in
// which case every resolution hits the store.
func NewResolver(store *Store, cache PermissionCache, logger *logrus.Entry) *Resolver {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Resolver{store: store, cache: cache, logger: logger}
}

// ResolveRoles returns the roles currently assigned to the user.
func (r *Resolver) ResolveRoles(ctx context.Context, userID uuid.UUID) (RoleSet, error) {
	return r.store.RolesForUser(ctx, userID)
}

// ResolvePermissions returns the transitive permission set of the user,
// consulting the cache first when one is configured.
func (r *Resolver) ResolvePermissions(ctx context.Context, userID uuid.UUID) (PermissionSet, error) {
	key := userID.String()
	if r.cache != nil {
		if permissions, ok := r.cache.Get(ctx, key); ok {
			permissionCacheLookups.WithLabelValues("hit").Inc()
			return permissions, nil
		}
		permissionCacheLookups.WithLabelValues("miss").Inc()
	}

	permissions, err := r.store.TransitivePermissionsForUser(ctx, userID)
	if err != nil {
		return PermissionSet{}, err
	}
	if r.cache != nil {
		r.cache.Set(ctx, key, permissions)
	}
	return permissions, nil
}

// Authorize decides whether the caller may perform an operation requiring
// the given permission. userID is nil for anonymous callers.
//
// Blanket-granted permissions succeed for everyone, checked before any
// storage access. Beyond that, an anonymous caller fails with
// ErrNotAuthenticated and an authenticated caller fails with
// MissingPermissionError unless their transitive permission set contains the
// permission. Failures are terminal for the request; nothing here retries.
func (r *Resolver) Authorize(ctx context.Context, userID *uuid.UUID, permission Permission) error {
	if IsBlanketGranted(permission) {
		authorizationDecisions.WithLabelValues(outcomeGranted).Inc()
		return nil
	}

	if userID == nil {
		authorizationDecisions.WithLabelValues(outcomeUnauthenticated).Inc()
		return ErrNotAuthenticated
	}

	permissions, err := r.ResolvePermissions(ctx, *userID)
	if err != nil {
		authorizationDecisions.WithLabelValues(outcomeError).Inc()
		return err
	}

	if !permissions.Has(permission) {
		authorizationDecisions.WithLabelValues(outcomeDenied).Inc()
		r.logger.WithFields(logrus.Fields{
			"user_id":    userID.String(),
			"permission": permission.Name(),
		}).Debug("permission denied")
		return &MissingPermissionError{Permission: permission}
	}

	authorizationDecisions.WithLabelValues(outcomeGranted).Inc()
	return nil
}

// GrantRoles assigns roles to a user and invalidates their cached permission
// set. All role mutations must go through the resolver so invalidation is
// never skipped.
func (r *Resolver) GrantRoles(ctx context.Context, userID uuid.UUID, roles RoleSet) (RoleSet, error) {
	updated, err := r.store.AddRolesToUser(ctx, userID, roles)
	if err != nil {
		return RoleSet{}, err
	}
	r.invalidate(ctx, userID)
	return updated, nil
}

// RevokeRoles removes roles from a user and invalidates their cached
// permission set.
func (r *Resolver) RevokeRoles(ctx context.Context, userID uuid.UUID, roles RoleSet) (RoleSet, error) {
	updated, err := r.store.RemoveRolesFromUser(ctx, userID, roles)
	if err != nil {
		return RoleSet{}, err
	}
	r.invalidate(ctx, userID)
	return updated, nil
}

func (r *Resolver) invalidate(ctx context.Context, userID uuid.UUID) {
	if r.cache != nil {
		r.cache.Invalidate(ctx, userID.String())
	}
}
