package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var migrationNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

const (
	upScriptTemplate   = "-- Schema changes applied by this migration.\n"
	downScriptTemplate = "-- Statements that revert this migration. Delete this file\n-- to leave the rollback undefined.\n"
)

// NextVersion returns one more than the highest version in the migration
// set, or 1 for an empty set.
func NextVersion(migrations []LocalMigration) int64 {
	var highest int64
	for _, migration := range migrations {
		if migration.Identifier.Version > highest {
			highest = migration.Identifier.Version
		}
	}
	return highest + 1
}

// Generate scaffolds a new migration directory under rootDir: stub up.sql
// and down.sql scripts plus a migration.toml with the default settings. The
// name must be a lowercase kebab-case slug.
func Generate(rootDir string, version int64, name string) (Identifier, error) {
	if !migrationNamePattern.MatchString(name) {
		return Identifier{}, fmt.Errorf("invalid migration name %q: use lowercase letters, digits and dashes", name)
	}

	identifier := Identifier{Version: version, Name: name}
	directory := filepath.Join(rootDir, identifier.DirectoryName())

	if _, err := os.Stat(directory); err == nil {
		return Identifier{}, fmt.Errorf("migration directory %s already exists", directory)
	}
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return Identifier{}, fmt.Errorf("creating migration directory: %w", err)
	}

	files := map[string]string{
		upScriptFileName:      upScriptTemplate,
		downScriptFileName:    downScriptTemplate,
		configurationFileName: ConfigurationTemplate,
	}
	for fileName, content := range files {
		if err := os.WriteFile(filepath.Join(directory, fileName), []byte(content), 0o644); err != nil {
			return Identifier{}, fmt.Errorf("writing %s: %w", fileName, err)
		}
	}
	return identifier, nil
}
