package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const ledgerTableName = "schema_migrations"

const createLedgerTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version            bigint      NOT NULL,
    name               text        NOT NULL,
    up_script_type     text        NOT NULL,
    up_script_sha256   bytea       NOT NULL,
    down_script_type   text,
    down_script_sha256 bytea,
    applied_at         timestamptz NOT NULL,
    execution_time_ms  bigint      NOT NULL,

    CONSTRAINT schema_migrations_pkey PRIMARY KEY (version)
)`

// RemoteMigration is one row of the migration ledger: a migration as the
// database remembers applying it.
type RemoteMigration struct {
	Version         int64
	Name            string
	UpKind          ScriptKind
	UpHash          Hash
	DownKind        *ScriptKind
	DownHash        *Hash
	AppliedAt       time.Time
	ExecutionTimeMS int64
}

// HasDown reports whether a down script was recorded at apply time.
func (m RemoteMigration) HasDown() bool {
	return m.DownKind != nil
}

// Ledger reads and writes the schema_migrations table.
type Ledger struct {
	db *sql.DB
}

// NewLedger wraps the migration ledger of the given database.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// EnsureTable creates the ledger table if it does not exist yet.
func (l *Ledger) EnsureTable(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, createLedgerTableSQL); err != nil {
		return fmt.Errorf("creating %s table: %w", ledgerTableName, err)
	}
	return nil
}

// All loads every ledger row, sorted by ascending version. Rows that cannot
// be interpreted (wrong hash length, down columns set inconsistently) fail
// the load with an *InvalidRowError.
func (l *Ledger) All(ctx context.Context) ([]RemoteMigration, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT version, name, up_script_type, up_script_sha256,
		       down_script_type, down_script_sha256,
		       applied_at, execution_time_ms
		FROM schema_migrations
		ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", ledgerTableName, err)
	}
	defer rows.Close()

	var migrations []RemoteMigration
	for rows.Next() {
		var (
			migration    RemoteMigration
			upKind       string
			upHashRaw    []byte
			downKindRaw  sql.NullString
			downHashRaw  []byte
			appliedAtRaw time.Time
		)
		if err := rows.Scan(
			&migration.Version, &migration.Name, &upKind, &upHashRaw,
			&downKindRaw, &downHashRaw,
			&appliedAtRaw, &migration.ExecutionTimeMS,
		); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", ledgerTableName, err)
		}

		migration.UpKind = ScriptKind(upKind)
		migration.UpHash, err = HashFromBytes(upHashRaw)
		if err != nil {
			return nil, &InvalidRowError{Version: migration.Version, Reason: "up script hash: " + err.Error()}
		}

		if downKindRaw.Valid != (downHashRaw != nil) {
			return nil, &InvalidRowError{
				Version: migration.Version,
				Reason:  "down script type and hash must both be set or both be null",
			}
		}
		if downKindRaw.Valid {
			downKind := ScriptKind(downKindRaw.String)
			downHash, err := HashFromBytes(downHashRaw)
			if err != nil {
				return nil, &InvalidRowError{Version: migration.Version, Reason: "down script hash: " + err.Error()}
			}
			migration.DownKind = &downKind
			migration.DownHash = &downHash
		}

		migration.AppliedAt = appliedAtRaw.UTC()
		migrations = append(migrations, migration)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", ledgerTableName, err)
	}
	return migrations, nil
}

// record inserts a ledger row for a freshly applied migration. It runs on
// the given Execer so it can share the script's transaction when the
// migration is configured to run inside one.
func (l *Ledger) record(ctx context.Context, db Execer, migration LocalMigration, appliedAt time.Time, executionTime time.Duration) error {
	var (
		downKind *string
		downHash []byte
	)
	if migration.Down != nil {
		kind := string(migration.Down.Kind())
		downKind = &kind
		downHash = migration.Down.Hash().Bytes()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO schema_migrations
			(version, name, up_script_type, up_script_sha256,
			 down_script_type, down_script_sha256, applied_at, execution_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		migration.Identifier.Version,
		migration.Identifier.Name,
		string(migration.Up.Kind()),
		migration.Up.Hash().Bytes(),
		downKind,
		downHash,
		appliedAt.UTC(),
		executionTime.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording migration %d in ledger: %w", migration.Identifier.Version, err)
	}
	return nil
}

// remove deletes the ledger row of a rolled-back migration, sharing the
// rollback's transaction when there is one.
func (l *Ledger) remove(ctx context.Context, db Execer, version int64) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, version); err != nil {
		return fmt.Errorf("removing migration %d from ledger: %w", version, err)
	}
	return nil
}
