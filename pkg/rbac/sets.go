package rbac

import "sort"

// PermissionSet is the set of permissions a user effectively holds at
// evaluation time. It is computed from the user's roles on demand and is
// never persisted as such.
type PermissionSet struct {
	permissions map[Permission]struct{}
}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(permissions ...Permission) PermissionSet {
	set := make(map[Permission]struct{}, len(permissions))
	for _, p := range permissions {
		set[p] = struct{}{}
	}
	return PermissionSet{permissions: set}
}

// PermissionSetFromNames builds a set from wire names. An unrecognized name
// is an integrity error, not a soft filter: the first offending name aborts
// construction with an UnknownPermissionNameError.
func PermissionSetFromNames(names []string) (PermissionSet, error) {
	set := make(map[Permission]struct{}, len(names))
	for _, name := range names {
		p, ok := PermissionFromName(name)
		if !ok {
			return PermissionSet{}, &UnknownPermissionNameError{Name: name}
		}
		set[p] = struct{}{}
	}
	return PermissionSet{permissions: set}, nil
}

// Has reports whether the permission is held: either blanket-granted to every
// caller, or explicitly present in the set. The blanket check runs first.
func (s PermissionSet) Has(p Permission) bool {
	if IsBlanketGranted(p) {
		return true
	}
	_, ok := s.permissions[p]
	return ok
}

// HasExplicit reports whether the permission is explicitly present, ignoring
// blanket grants.
func (s PermissionSet) HasExplicit(p Permission) bool {
	_, ok := s.permissions[p]
	return ok
}

// IsSubsetOf reports whether every explicit permission in s is also
// explicitly present in other. Blanket grants are not consulted; this is the
// primitive behind composite checks such as "does role A cover role B".
func (s PermissionSet) IsSubsetOf(other PermissionSet) bool {
	for p := range s.permissions {
		if _, ok := other.permissions[p]; !ok {
			return false
		}
	}
	return true
}

// Len returns the number of explicit permissions in the set.
func (s PermissionSet) Len() int {
	return len(s.permissions)
}

// Permissions returns the explicit permissions in id order.
func (s PermissionSet) Permissions() []Permission {
	permissions := make([]Permission, 0, len(s.permissions))
	for p := range s.permissions {
		permissions = append(permissions, p)
	}
	sort.Slice(permissions, func(i, j int) bool { return permissions[i] < permissions[j] })
	return permissions
}

// Names returns the wire names of the explicit permissions in id order.
func (s PermissionSet) Names() []string {
	permissions := s.Permissions()
	names := make([]string, len(permissions))
	for i, p := range permissions {
		names[i] = p.Name()
	}
	return names
}

// RoleSet is the set of roles assigned to one user, persisted through the
// user_roles join table.
type RoleSet struct {
	roles map[Role]struct{}
}

// NewRoleSet builds a set from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return RoleSet{roles: set}
}

// RoleSetFromNames builds a set from role names, failing on the first
// unrecognized name with an UnknownRoleNameError.
func RoleSetFromNames(names []string) (RoleSet, error) {
	set := make(map[Role]struct{}, len(names))
	for _, name := range names {
		r, ok := RoleFromName(name)
		if !ok {
			return RoleSet{}, &UnknownRoleNameError{Name: name}
		}
		set[r] = struct{}{}
	}
	return RoleSet{roles: set}, nil
}

// HasRole reports whether the set contains the role.
func (s RoleSet) HasRole(r Role) bool {
	_, ok := s.roles[r]
	return ok
}

// GrantedPermissionSet unions the grant lists of every role in the set.
// Holding any single qualifying role is sufficient for a permission.
func (s RoleSet) GrantedPermissionSet() PermissionSet {
	permissions := make(map[Permission]struct{})
	for r := range s.roles {
		for _, p := range r.PermissionsGranted() {
			permissions[p] = struct{}{}
		}
	}
	return PermissionSet{permissions: permissions}
}

// Len returns the number of roles in the set.
func (s RoleSet) Len() int {
	return len(s.roles)
}

// Roles returns the roles in id order.
func (s RoleSet) Roles() []Role {
	roles := make([]Role, 0, len(s.roles))
	for r := range s.roles {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	return roles
}

// Names returns the role names in id order.
func (s RoleSet) Names() []string {
	roles := s.Roles()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name()
	}
	return names
}
