package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/sirupsen/logrus"
)

const (
	upScriptFileName      = "up.sql"
	downScriptFileName    = "down.sql"
	configurationFileName = "migration.toml"
)

// GoScripts bundles the registered Go functions for one migration directory.
// Source snapshots are hashed in place of SQL file content so that edits to
// applied Go migrations are detected as drift.
type GoScripts struct {
	Up         GoMigration
	UpSource   []byte
	Down       GoMigration
	DownSource []byte
}

// LocalMigration is one migration as it exists on disk (or in an embedded
// filesystem): its identity, per-direction configuration, a mandatory up
// script and an optional down script.
type LocalMigration struct {
	Identifier    Identifier
	Configuration Configuration
	Up            Script
	Down          *Script
}

// HasDown reports whether the migration defines a rollback script.
func (m LocalMigration) HasDown() bool {
	return m.Down != nil
}

// LoadLocal scans the root of fsys for migration directories, one level
// deep. Each directory must either contain an up.sql file or have Go
// scripts registered under its directory name in goScripts. Directories
// sharing a version number are a fatal error; directories sharing only a
// name are legal but logged as a warning. The returned slice is sorted by
// ascending version.
func LoadLocal(fsys fs.FS, goScripts map[string]GoScripts, logger *logrus.Logger) ([]LocalMigration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations root: %w", err)
	}

	migrations := make([]LocalMigration, 0, len(entries))
	byVersion := make(map[int64]string, len(entries))
	byName := make(map[string]string, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		directoryName := entry.Name()
		identifier, err := ParseIdentifier(directoryName)
		if err != nil {
			return nil, err
		}

		if previous, exists := byVersion[identifier.Version]; exists {
			return nil, &DuplicateVersionError{
				Version: identifier.Version,
				First:   previous,
				Second:  directoryName,
			}
		}
		byVersion[identifier.Version] = directoryName

		if previous, exists := byName[identifier.Name]; exists && logger != nil {
			logger.WithFields(logrus.Fields{
				"name":   identifier.Name,
				"first":  previous,
				"second": directoryName,
			}).Warn("multiple migrations share a name")
		}
		byName[identifier.Name] = directoryName

		migration, err := loadMigrationDirectory(fsys, directoryName, identifier, goScripts)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, migration)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Identifier.Version < migrations[j].Identifier.Version
	})
	return migrations, nil
}

func loadMigrationDirectory(
	fsys fs.FS,
	directoryName string,
	identifier Identifier,
	goScripts map[string]GoScripts,
) (LocalMigration, error) {
	migration := LocalMigration{Identifier: identifier}

	configurationContent, err := fs.ReadFile(fsys, path.Join(directoryName, configurationFileName))
	switch {
	case err == nil:
		migration.Configuration, err = ParseConfiguration(configurationContent)
		if err != nil {
			return LocalMigration{}, fmt.Errorf("migration %s: %w", directoryName, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		migration.Configuration = DefaultConfiguration()
	default:
		return LocalMigration{}, fmt.Errorf("migration %s: reading configuration: %w", directoryName, err)
	}

	if registered, exists := goScripts[directoryName]; exists {
		if registered.Up == nil {
			return LocalMigration{}, fmt.Errorf("migration %s: registered Go scripts lack an up function", directoryName)
		}
		migration.Up = NewGoScript(registered.Up, registered.UpSource)
		if registered.Down != nil {
			down := NewGoScript(registered.Down, registered.DownSource)
			migration.Down = &down
		}
		return migration, nil
	}

	upContent, err := fs.ReadFile(fsys, path.Join(directoryName, upScriptFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LocalMigration{}, fmt.Errorf("migration %s: missing %s and no Go scripts registered", directoryName, upScriptFileName)
		}
		return LocalMigration{}, fmt.Errorf("migration %s: reading up script: %w", directoryName, err)
	}
	migration.Up = NewSQLScript(upContent)

	downContent, err := fs.ReadFile(fsys, path.Join(directoryName, downScriptFileName))
	switch {
	case err == nil:
		down := NewSQLScript(downContent)
		migration.Down = &down
	case errors.Is(err, fs.ErrNotExist):
		// Rollback stays undefined.
	default:
		return LocalMigration{}, fmt.Errorf("migration %s: reading down script: %w", directoryName, err)
	}

	return migration, nil
}
