package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine ties the local migration set, the ledger and a database handle
// together and drives migrations through their lifecycle.
type Engine struct {
	db     *sql.DB
	ledger *Ledger
	local  []LocalMigration
	logger *logrus.Logger
}

// NewEngine builds an engine for the given database and local migration
// set. Call Initialize before anything else so the ledger table exists.
func NewEngine(db *sql.DB, local []LocalMigration, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{
		db:     db,
		ledger: NewLedger(db),
		local:  local,
		logger: logger,
	}
}

// Initialize creates the ledger table if needed.
func (e *Engine) Initialize(ctx context.Context) error {
	return e.ledger.EnsureTable(ctx)
}

// Status reconciles the local migration set against the ledger and returns
// every migration with its current status, sorted by ascending version.
func (e *Engine) Status(ctx context.Context) ([]Migration, error) {
	remote, err := e.ledger.All(ctx)
	if err != nil {
		return nil, err
	}
	return Reconcile(e.local, remote)
}

// Apply runs a pending migration's up script and records it in the ledger.
// When the up direction is configured to run inside a transaction, the
// script and the ledger insert share one transaction; otherwise the ledger
// row is written right after the script succeeds.
func (e *Engine) Apply(ctx context.Context, migration Migration) error {
	if migration.Status == StatusApplied {
		return fmt.Errorf("migration %s is already applied", migration.Identifier)
	}

	e.logger.WithFields(logrus.Fields{
		"version": migration.Identifier.Version,
		"name":    migration.Identifier.Name,
	}).Info("applying migration")

	appliedAt := time.Now().UTC()
	started := time.Now()

	run := func(ctx context.Context, db Execer) error {
		if err := migration.Up.Run(ctx, db); err != nil {
			return err
		}
		return e.ledger.record(ctx, db, migration.LocalMigration, appliedAt, time.Since(started))
	}

	if migration.Configuration.UpRunInsideTransaction {
		if err := e.inTransaction(ctx, run); err != nil {
			return fmt.Errorf("applying migration %s: %w", migration.Identifier, err)
		}
		return nil
	}
	if err := run(ctx, e.db); err != nil {
		return fmt.Errorf("applying migration %s: %w", migration.Identifier, err)
	}
	return nil
}

// Rollback runs an applied migration's down script and deletes its ledger
// row. Migrations without a down script cannot be rolled back.
func (e *Engine) Rollback(ctx context.Context, migration Migration) error {
	if migration.Status != StatusApplied {
		return fmt.Errorf("migration %s is not applied", migration.Identifier)
	}
	if migration.Down == nil {
		return fmt.Errorf("rolling back migration %s: %w", migration.Identifier, ErrRollbackUndefined)
	}

	e.logger.WithFields(logrus.Fields{
		"version": migration.Identifier.Version,
		"name":    migration.Identifier.Name,
	}).Info("rolling back migration")

	run := func(ctx context.Context, db Execer) error {
		if err := migration.Down.Run(ctx, db); err != nil {
			return err
		}
		return e.ledger.remove(ctx, db, migration.Identifier.Version)
	}

	if migration.Configuration.DownRunInsideTransaction {
		if err := e.inTransaction(ctx, run); err != nil {
			return fmt.Errorf("rolling back migration %s: %w", migration.Identifier, err)
		}
		return nil
	}
	if err := run(ctx, e.db); err != nil {
		return fmt.Errorf("rolling back migration %s: %w", migration.Identifier, err)
	}
	return nil
}

// Up applies every pending migration with a version at or below
// targetVersion, in ascending order, stopping at the first failure. It
// returns the identifiers of the migrations it applied.
func (e *Engine) Up(ctx context.Context, targetVersion int64) ([]Identifier, error) {
	migrations, err := e.Status(ctx)
	if err != nil {
		return nil, err
	}

	var applied []Identifier
	for _, migration := range PendingUpTo(migrations, targetVersion) {
		if err := e.Apply(ctx, migration); err != nil {
			return applied, err
		}
		applied = append(applied, migration.Identifier)
	}
	return applied, nil
}

// Down rolls back every applied migration with a version strictly above
// targetVersion, in descending order, stopping at the first failure. It
// returns the identifiers of the migrations it rolled back.
func (e *Engine) Down(ctx context.Context, targetVersion int64) ([]Identifier, error) {
	migrations, err := e.Status(ctx)
	if err != nil {
		return nil, err
	}

	var rolledBack []Identifier
	for _, migration := range AppliedAbove(migrations, targetVersion) {
		if err := e.Rollback(ctx, migration); err != nil {
			return rolledBack, err
		}
		rolledBack = append(rolledBack, migration.Identifier)
	}
	return rolledBack, nil
}

func (e *Engine) inTransaction(ctx context.Context, run func(context.Context, Execer) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := run(ctx, tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			e.logger.WithError(rollbackErr).Error("failed to roll back migration transaction")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// PendingUpTo selects the pending migrations with versions at or below
// targetVersion, in ascending version order.
func PendingUpTo(migrations []Migration, targetVersion int64) []Migration {
	var selected []Migration
	for _, migration := range migrations {
		if migration.Status == StatusPending && migration.Identifier.Version <= targetVersion {
			selected = append(selected, migration)
		}
	}
	return selected
}

// AppliedAbove selects the applied migrations with versions strictly above
// targetVersion, in descending version order so the newest rolls back
// first.
func AppliedAbove(migrations []Migration, targetVersion int64) []Migration {
	var selected []Migration
	for i := len(migrations) - 1; i >= 0; i-- {
		migration := migrations[i]
		if migration.Status == StatusApplied && migration.Identifier.Version > targetVersion {
			selected = append(selected, migration)
		}
	}
	return selected
}
