// Package rbac implements the authorization model of the dictionary backend:
// a closed registry of permissions and roles, value-level permission and role
// sets, and a database-backed resolver that expands a user's roles into the
// transitive set of permissions they hold.
//
// Permissions are granted to roles, never directly to users. A user holds a
// permission if any of their roles grants it, or if the permission carries a
// blanket grant (held by every caller, authenticated or not).
//
// The permission and role tables in this package are the single source of
// truth: lookup in both directions and the database seed statements are all
// derived from them.
package rbac
