package rbac

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store reads and writes role assignment data. It owns no authorization
// logic; every decision happens in the Resolver on top of the sets this
// store produces.
type Store struct {
	db *sql.DB
}

// NewStore creates a role assignment store over the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RolesForUser returns the set of roles currently assigned to a user. A user
// with no assignments yields an empty set, not an error.
func (s *Store) RolesForUser(ctx context.Context, userID uuid.UUID) (RoleSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT role_id FROM user_roles WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return RoleSet{}, fmt.Errorf("failed to query user roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var roleID int32
		if err := rows.Scan(&roleID); err != nil {
			return RoleSet{}, fmt.Errorf("failed to scan role id: %w", err)
		}
		role, ok := RoleFromID(roleID)
		if !ok {
			return RoleSet{}, &IntegrityError{
				Reason: fmt.Sprintf("unrecognized role id %d assigned to user %s", roleID, userID),
			}
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return RoleSet{}, fmt.Errorf("failed to read user roles: %w", err)
	}

	return NewRoleSet(roles...), nil
}

// TransitivePermissionsForUser returns every permission granted to the user
// through any of their roles, using a direct join instead of expanding the
// role set in memory. The result is observably identical to
// RolesForUser(...).GrantedPermissionSet().
func (s *Store) TransitivePermissionsForUser(ctx context.Context, userID uuid.UUID) (PermissionSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT rp.permission_id
		   FROM role_permissions rp
		   JOIN user_roles ur ON rp.role_id = ur.role_id
		  WHERE ur.user_id = $1`,
		userID,
	)
	if err != nil {
		return PermissionSet{}, fmt.Errorf("failed to query transitive permissions: %w", err)
	}
	defer rows.Close()

	var permissions []Permission
	for rows.Next() {
		var permissionID int32
		if err := rows.Scan(&permissionID); err != nil {
			return PermissionSet{}, fmt.Errorf("failed to scan permission id: %w", err)
		}
		if permissionID < 0 || permissionID > 0xFFFF {
			return PermissionSet{}, &IntegrityError{
				Reason: fmt.Sprintf("permission id %d out of range", permissionID),
			}
		}
		permission, ok := PermissionFromID(uint16(permissionID))
		if !ok {
			return PermissionSet{}, &IntegrityError{
				Reason: fmt.Sprintf("unrecognized permission id %d granted to user %s", permissionID, userID),
			}
		}
		permissions = append(permissions, permission)
	}
	if err := rows.Err(); err != nil {
		return PermissionSet{}, fmt.Errorf("failed to read transitive permissions: %w", err)
	}

	return NewPermissionSet(permissions...), nil
}

// HasPermissionTransitively answers a single permission membership question
// with one EXISTS query. Callers checking more than one permission should
// use TransitivePermissionsForUser once instead.
func (s *Store) HasPermissionTransitively(ctx context.Context, userID uuid.UUID, p Permission) (bool, error) {
	var held bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(
		    SELECT 1
		      FROM role_permissions rp
		      JOIN user_roles ur ON rp.role_id = ur.role_id
		     WHERE ur.user_id = $1 AND rp.permission_id = $2
		 )`,
		userID, int32(p.ID()),
	).Scan(&held)
	if err != nil {
		return false, fmt.Errorf("failed to query permission membership: %w", err)
	}
	return held, nil
}

// AddRolesToUser assigns the given roles to a user. Roles the user already
// holds are ignored. Returns the full updated role set so callers can
// confirm the mutation took effect.
func (s *Store) AddRolesToUser(ctx context.Context, userID uuid.UUID, roles RoleSet) (RoleSet, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RoleSet{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, role := range roles.Roles() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			userID, role.ID(),
		); err != nil {
			return RoleSet{}, fmt.Errorf("failed to assign role %q: %w", role.Name(), err)
		}
	}

	updated, err := rolesForUserTx(ctx, tx, userID)
	if err != nil {
		return RoleSet{}, err
	}
	if err := tx.Commit(); err != nil {
		return RoleSet{}, fmt.Errorf("failed to commit role assignment: %w", err)
	}
	return updated, nil
}

// RemoveRolesFromUser revokes the given roles from a user. Roles the user
// does not hold are ignored. Returns the full updated role set.
func (s *Store) RemoveRolesFromUser(ctx context.Context, userID uuid.UUID, roles RoleSet) (RoleSet, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RoleSet{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	roleIDs := make([]int32, 0, roles.Len())
	for _, role := range roles.Roles() {
		roleIDs = append(roleIDs, role.ID())
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = ANY($2)`,
		userID, pq.Array(roleIDs),
	); err != nil {
		return RoleSet{}, fmt.Errorf("failed to revoke roles: %w", err)
	}

	updated, err := rolesForUserTx(ctx, tx, userID)
	if err != nil {
		return RoleSet{}, err
	}
	if err := tx.Commit(); err != nil {
		return RoleSet{}, fmt.Errorf("failed to commit role revocation: %w", err)
	}
	return updated, nil
}

func rolesForUserTx(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (RoleSet, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT role_id FROM user_roles WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return RoleSet{}, fmt.Errorf("failed to query updated roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var roleID int32
		if err := rows.Scan(&roleID); err != nil {
			return RoleSet{}, fmt.Errorf("failed to scan role id: %w", err)
		}
		role, ok := RoleFromID(roleID)
		if !ok {
			return RoleSet{}, &IntegrityError{
				Reason: fmt.Sprintf("unrecognized role id %d assigned to user %s", roleID, userID),
			}
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return RoleSet{}, fmt.Errorf("failed to read updated roles: %w", err)
	}
	return NewRoleSet(roles...), nil
}
