// Package migrations embeds the application's migration set and registers
// its Go-implemented migrations.
package migrations

import (
	"context"
	"embed"
	"io/fs"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/slovar/slovar/pkg/migrate"
	"github.com/slovar/slovar/pkg/rbac"
)

//go:embed M0001_initialize-schema M0002_seed-permissions-and-roles M0003_create-dictionary-tables M0004_create-audit-log
var files embed.FS

// Filesystem returns the embedded migration directories.
func Filesystem() fs.FS {
	return files
}

// GoScripts returns the Go-implemented migration steps, keyed by directory
// name. The seed migration renders its statements from the permission and
// role registries, so the source snapshot (and through it the recorded
// hash) changes whenever the registries do; reconciliation then flags the
// drift instead of letting the seed rows silently diverge.
func GoScripts() map[string]migrate.GoScripts {
	return map[string]migrate.GoScripts{
		"M0002_seed-permissions-and-roles": {
			Up:         seedAccessControl,
			UpSource:   []byte(strings.Join(rbac.SeedStatements(), "\n")),
			Down:       unseedAccessControl,
			DownSource: []byte(strings.Join(rbac.UnseedStatements(), "\n")),
		},
	}
}

// Load parses and validates the embedded migration set.
func Load(logger *logrus.Logger) ([]migrate.LocalMigration, error) {
	return migrate.LoadLocal(files, GoScripts(), logger)
}

func seedAccessControl(ctx context.Context, db migrate.Execer) error {
	for _, statement := range rbac.SeedStatements() {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

func unseedAccessControl(ctx context.Context, db migrate.Execer) error {
	for _, statement := range rbac.UnseedStatements() {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}
