package rbac

import "fmt"

// Permission is a single grantable capability. The numeric value is the
// stable database id; the name is the stable wire identifier. Ids are never
// reused, which is why the sequence has gaps.
type Permission uint16

const (
	PermissionUserSelfRead  Permission = 1
	PermissionUserSelfWrite Permission = 2
	PermissionUserAnyRead   Permission = 3
	PermissionUserAnyWrite  Permission = 4

	PermissionWordCreate Permission = 5
	PermissionWordRead   Permission = 6
	PermissionWordUpdate Permission = 7
	PermissionWordDelete Permission = 8

	PermissionTranslationCreate Permission = 11
	PermissionTranslationDelete Permission = 12

	PermissionCategoryCreate Permission = 13
	PermissionCategoryRead   Permission = 14
	PermissionCategoryUpdate Permission = 15
	PermissionCategoryDelete Permission = 16
)

type permissionEntry struct {
	id          Permission
	name        string
	description string
}

// permissionTable is the canonical permission registry. Everything else --
// name and id lookups, the seed migration, the OpenAPI-facing name lists --
// derives from this table. Do not maintain a second copy anywhere.
var permissionTable = []permissionEntry{
	{PermissionUserSelfRead, "user.self:read", "Log in and view own account information."},
	{PermissionUserSelfWrite, "user.self:write", "Update own account information."},
	{PermissionUserAnyRead, "user.any:read", "View public account information of any user."},
	{PermissionUserAnyWrite, "user.any:write", "Update account information of any user."},
	{PermissionWordCreate, "word:create", "Create words in the dictionary."},
	{PermissionWordRead, "word:read", "Read words in the dictionary."},
	{PermissionWordUpdate, "word:update", "Update existing words in the dictionary."},
	{PermissionWordDelete, "word:delete", "Delete words from the dictionary."},
	{PermissionTranslationCreate, "word.translation:create", "Create a translation between two words."},
	{PermissionTranslationDelete, "word.translation:delete", "Remove a translation between two words."},
	{PermissionCategoryCreate, "category:create", "Create a word category."},
	{PermissionCategoryRead, "category:read", "Read word categories."},
	{PermissionCategoryUpdate, "category:update", "Update an existing word category."},
	{PermissionCategoryDelete, "category:delete", "Delete a word category."},
}

var (
	permissionsByID   = make(map[Permission]*permissionEntry, len(permissionTable))
	permissionsByName = make(map[string]*permissionEntry, len(permissionTable))
)

func init() {
	for i := range permissionTable {
		entry := &permissionTable[i]
		if _, dup := permissionsByID[entry.id]; dup {
			panic(fmt.Sprintf("rbac: duplicate permission id %d", entry.id))
		}
		if _, dup := permissionsByName[entry.name]; dup {
			panic(fmt.Sprintf("rbac: duplicate permission name %q", entry.name))
		}
		permissionsByID[entry.id] = entry
		permissionsByName[entry.name] = entry
	}
}

// PermissionFromID resolves a stored numeric permission id. The second return
// value is false for ids that are not part of the registry.
func PermissionFromID(id uint16) (Permission, bool) {
	entry, ok := permissionsByID[Permission(id)]
	if !ok {
		return 0, false
	}
	return entry.id, true
}

// PermissionFromName resolves a wire permission name such as "word:read".
func PermissionFromName(name string) (Permission, bool) {
	entry, ok := permissionsByName[name]
	if !ok {
		return 0, false
	}
	return entry.id, true
}

// AllPermissions returns every registered permission in id order.
func AllPermissions() []Permission {
	permissions := make([]Permission, 0, len(permissionTable))
	for i := range permissionTable {
		permissions = append(permissions, permissionTable[i].id)
	}
	return permissions
}

// ID returns the stable database id of the permission.
func (p Permission) ID() uint16 {
	return uint16(p)
}

// Name returns the stable wire name of the permission.
func (p Permission) Name() string {
	if entry, ok := permissionsByID[p]; ok {
		return entry.name
	}
	return fmt.Sprintf("permission(%d)", uint16(p))
}

// Description returns the human-readable description of the permission.
func (p Permission) Description() string {
	if entry, ok := permissionsByID[p]; ok {
		return entry.description
	}
	return ""
}

func (p Permission) String() string {
	return p.Name()
}

// BlanketGrants lists the permissions every API caller holds, authenticated
// or not. They cover the public read-only surface of the dictionary and are
// checked before any role expansion.
var BlanketGrants = []Permission{
	PermissionWordRead,
	PermissionUserAnyRead,
	PermissionCategoryRead,
}

// IsBlanketGranted reports whether the permission is held by every caller.
func IsBlanketGranted(p Permission) bool {
	for _, granted := range BlanketGrants {
		if granted == p {
			return true
		}
	}
	return false
}
