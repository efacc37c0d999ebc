package rbac

import (
	"fmt"
	"strings"
)

// SeedStatements renders the INSERT statements that populate the
// permissions, roles and role_permissions tables from the canonical
// registries. The seed migration executes exactly these statements, so the
// database contents cannot drift from the compiled-in tables.
func SeedStatements() []string {
	statements := make([]string, 0, len(permissionTable)+len(roleTable)+1)

	for i := range permissionTable {
		entry := &permissionTable[i]
		statements = append(statements, fmt.Sprintf(
			"INSERT INTO permissions (id, name, description) VALUES (%d, %s, %s)",
			entry.id.ID(), quoteLiteral(entry.name), quoteLiteral(entry.description),
		))
	}

	for i := range roleTable {
		entry := &roleTable[i]
		statements = append(statements, fmt.Sprintf(
			"INSERT INTO roles (id, name, description) VALUES (%d, %s, %s)",
			entry.id.ID(), quoteLiteral(entry.name), quoteLiteral(entry.description),
		))
	}

	for i := range roleTable {
		entry := &roleTable[i]
		for _, p := range entry.grants {
			statements = append(statements, fmt.Sprintf(
				"INSERT INTO role_permissions (role_id, permission_id) VALUES (%d, %d)",
				entry.id.ID(), p.ID(),
			))
		}
	}

	return statements
}

// UnseedStatements renders the DELETE statements that undo SeedStatements,
// in reverse dependency order.
func UnseedStatements() []string {
	return []string{
		"DELETE FROM role_permissions",
		"DELETE FROM roles",
		"DELETE FROM permissions",
	}
}

// quoteLiteral renders a single-quoted SQL string literal. The registry
// contents are compile-time constants, so doubling quotes is all that is
// needed.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
