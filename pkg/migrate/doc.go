// Package migrate implements the schema migration engine.
//
// Migrations live in versioned directories (M0001_initialize-schema and so
// on) and are applied against a ledger table in the target database. Each
// migration carries an up script and optionally a down script; scripts are
// either raw SQL files or registered Go functions. The engine reconciles the
// local set of migrations against the ledger, detecting drift by content
// hash, and applies or rolls back migrations in version order.
package migrate
