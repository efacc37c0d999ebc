package rbac

import "fmt"

// Role is a named bundle of permissions that can be assigned to users. Like
// permissions, roles carry a stable database id and a stable lower-case name.
type Role int32

const (
	RoleUser          Role = 1
	RoleAdministrator Role = 2
)

// DefaultRole is assigned to every newly registered user.
const DefaultRole = RoleUser

type roleEntry struct {
	id          Role
	name        string
	description string
	grants      []Permission
}

// roleTable is the canonical role registry, including each role's fixed grant
// list. The seed migration is rendered from this table.
var roleTable = []roleEntry{
	{
		id:          RoleUser,
		name:        "user",
		description: "Normal user with access to their own account and most read permissions.",
		grants: []Permission{
			PermissionUserSelfRead,
			PermissionUserSelfWrite,
			PermissionUserAnyRead,
			PermissionWordRead,
		},
	},
	{
		id:          RoleAdministrator,
		name:        "administrator",
		description: "Administrator with almost all permissions, including deletions.",
		grants: []Permission{
			PermissionUserAnyWrite,
			PermissionWordCreate,
			PermissionWordUpdate,
			PermissionWordDelete,
			PermissionTranslationCreate,
			PermissionTranslationDelete,
			PermissionCategoryCreate,
			PermissionCategoryUpdate,
			PermissionCategoryDelete,
		},
	},
}

var (
	rolesByID   = make(map[Role]*roleEntry, len(roleTable))
	rolesByName = make(map[string]*roleEntry, len(roleTable))
)

func init() {
	for i := range roleTable {
		entry := &roleTable[i]
		if _, dup := rolesByID[entry.id]; dup {
			panic(fmt.Sprintf("rbac: duplicate role id %d", entry.id))
		}
		if _, dup := rolesByName[entry.name]; dup {
			panic(fmt.Sprintf("rbac: duplicate role name %q", entry.name))
		}
		rolesByID[entry.id] = entry
		rolesByName[entry.name] = entry
	}
}

// RoleFromID resolves a stored numeric role id.
func RoleFromID(id int32) (Role, bool) {
	entry, ok := rolesByID[Role(id)]
	if !ok {
		return 0, false
	}
	return entry.id, true
}

// RoleFromName resolves a lower-case role name such as "administrator".
func RoleFromName(name string) (Role, bool) {
	entry, ok := rolesByName[name]
	if !ok {
		return 0, false
	}
	return entry.id, true
}

// AllRoles returns every registered role in id order.
func AllRoles() []Role {
	roles := make([]Role, 0, len(roleTable))
	for i := range roleTable {
		roles = append(roles, roleTable[i].id)
	}
	return roles
}

// ID returns the stable database id of the role.
func (r Role) ID() int32 {
	return int32(r)
}

// Name returns the stable lower-case name of the role.
func (r Role) Name() string {
	if entry, ok := rolesByID[r]; ok {
		return entry.name
	}
	return fmt.Sprintf("role(%d)", int32(r))
}

// Description returns the human-readable description of the role.
func (r Role) Description() string {
	if entry, ok := rolesByID[r]; ok {
		return entry.description
	}
	return ""
}

func (r Role) String() string {
	return r.Name()
}

// PermissionsGranted returns the fixed grant list of the role. The returned
// slice is a copy; callers may modify it freely.
func (r Role) PermissionsGranted() []Permission {
	entry, ok := rolesByID[r]
	if !ok {
		return nil
	}
	grants := make([]Permission, len(entry.grants))
	copy(grants, entry.grants)
	return grants
}
